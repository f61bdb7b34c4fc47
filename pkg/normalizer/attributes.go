package normalizer

import (
	"fmt"
	"strings"
)

// NormalizeAttributes returns a copy of attrs with canonical English values
// layered into the keys consumers read. The value that was replaced is kept
// under a "<field>_th" side key, so running it twice gives the same result.
func NormalizeAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+16)
	for k, v := range attrs {
		out[k] = v
	}

	fuelRaw := firstValue(out, append([]string{"fuel_type_th"}, FuelKeys...)...)
	fuel := layer(out, "fuel_type", KindFuel, fuelRaw, KeyFuelType, KeyFuel)

	colorRaw := firstValue(out, "color_th", KeyColor)
	color := layer(out, "color", KindColor, colorRaw, KeyColor)

	// A sub-type such as "รถเก๋ง 4 ประตู" decides over the generic type.
	bodyRaw := firstValue(out, "body_type_th", KeyBodySubtype, KeyBodyType, KeyBodyShape, KeyBodyShell)
	body := layer(out, "body_type", KindBodyType, bodyRaw, KeyBodyType, KeyBodyShape)
	delete(out, KeyBodySubtype)

	gearRaw := firstValue(out, "transmission_th", KeyGear, KeyGearSystem)
	gear := layer(out, "transmission", KindTransmission, gearRaw, KeyGear, KeyGearSystem)

	loc := firstValue(out, KeyAddress, KeyProvince, KeyLocation, KeyCarLocation)
	if en, th := NormalizeProvince(loc); en != "" {
		out[KeyProvince] = en
		out[KeyProvinceTh] = th
	}

	setIfNotEmpty(out, "seller", firstValue(out, KeySeller))
	setIfNotEmpty(out, "location", firstValue(out, KeyProvince, KeyAddress, KeyLocation, KeyCarLocation))
	setIfNotEmpty(out, "gear", gear)
	setIfNotEmpty(out, "fuel", fuel)
	setIfNotEmpty(out, "color", color)
	setIfNotEmpty(out, "body_type", body)
	return out
}

// layer writes the display value for one field into targets and records the
// raw, English and lower-cased side keys. It returns the display value.
func layer(out map[string]any, field string, kind Kind, raw string, targets ...string) string {
	if raw == "" {
		return ""
	}
	en, ok := Normalize(kind, raw)
	display := raw
	if ok {
		display = en
		out[field+"_en"] = en
	}
	for _, k := range targets {
		out[k] = display
	}
	out[field+"_th"] = raw
	out[field+"_normalized"] = strings.ToLower(display)
	return display
}

// firstValue returns the first non-empty string among keys, looking at the
// top level first and then inside the specs table.
func firstValue(attrs map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringValue(attrs[k]); v != "" {
			return v
		}
	}
	specs := nestedMap(attrs[KeySpecs])
	for _, k := range keys {
		if v := stringValue(specs[k]); v != "" {
			return v
		}
	}
	return ""
}

func nestedMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	}
	return nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case map[string]any, map[string]string:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
