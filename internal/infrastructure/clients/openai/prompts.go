package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/domain/providers"
)

const recommendationSystemPrompt = `You are a used-car buying advisor for the Thai market. You are given a buyer profile and a list of candidate cars. Choose exactly ONE car.
Rules:
1. The budget comes first. Never choose a car priced above max_budget when any car within the budget exists.
2. Among cars within the budget weigh value for money, fit for the stated purpose, lower mileage and a newer model year.
3. Only choose a car_id that appears in the candidate list and never one listed in exclude_ids.
Return ONLY valid JSON with this schema:
{"car_id": number, "reason": string}
The reason is 80-180 words of plain English addressed to the buyer. Mention the price in THB with thousands separators.`

const translationSystemPrompt = `You translate short attribute values from Thai used-car listings into natural English for a used-car listing context. Keep brand and model names as they are commonly written in English. Keep numbers unchanged.
Return ONLY a JSON array of strings with exactly one translation per input, in the same order.`

// candidatePayload is the compact view of a listing sent to the model
type candidatePayload struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Year      *int   `json:"year,omitempty"`
	PriceTHB  *int64 `json:"price_thb,omitempty"`
	MileageKm *int64 `json:"mileage_km,omitempty"`
	Fuel      string `json:"fuel,omitempty"`
	Gear      string `json:"gear,omitempty"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Province  string `json:"province,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

type recommendationInput struct {
	MaxBudget  int64                `json:"max_budget"`
	Query      string               `json:"query,omitempty"`
	MinYear    int                  `json:"min_year,omitempty"`
	MaxYear    int                  `json:"max_year,omitempty"`
	BodyType   string               `json:"car_type,omitempty"`
	FuelType   string               `json:"fuel_type,omitempty"`
	GearType   string               `json:"gear_type,omitempty"`
	Color      string               `json:"color,omitempty"`
	Profile    entities.UserProfile `json:"profile"`
	Candidates []candidatePayload   `json:"candidates"`
	ExcludeIDs []int64              `json:"exclude_ids"`
}

func buildRecommendationPrompt(req providers.RecommendationRequest) (string, error) {
	p := req.Params
	in := recommendationInput{
		MaxBudget:  p.MaxBudget,
		Query:      p.Query,
		MinYear:    p.MinYear,
		MaxYear:    p.MaxYear,
		BodyType:   p.BodyType,
		FuelType:   p.FuelType,
		GearType:   p.GearType,
		Color:      p.Color,
		Profile:    p.Profile,
		ExcludeIDs: req.Exclude,
	}
	if in.ExcludeIDs == nil {
		in.ExcludeIDs = []int64{}
	}
	for _, l := range req.Candidates {
		if l == nil {
			continue
		}
		in.Candidates = append(in.Candidates, candidatePayload{
			ID:        l.ID,
			Title:     l.Title,
			Brand:     l.Brand,
			Model:     l.Model,
			Year:      l.Year,
			PriceTHB:  l.Price,
			MileageKm: l.Mileage,
			Fuel:      l.Attributes.FirstString("fuel", "เชื้อเพลิง"),
			Gear:      l.Attributes.FirstString("gear", "เกียร์"),
			Source:    l.Source,
			URL:       l.SourceURL,
			Province:  l.Province,
			ImageURL:  l.ImageURL,
		})
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	return "Buyer request and candidates:\n" + string(data), nil
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]+\}`)

type recommendationPayload struct {
	CarID  json.RawMessage `json:"car_id"`
	Reason string          `json:"reason"`
}

// parseRecommendation reads {car_id, reason}. Prose around the object is
// tolerated, and car_id may arrive as a number or a numeric string.
func parseRecommendation(text string) (*providers.RecommendationResult, error) {
	raw := strings.TrimSpace(text)
	var payload recommendationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		match := jsonObjectRe.FindString(raw)
		if match == "" {
			return nil, errors.New("no json object in response")
		}
		if err := json.Unmarshal([]byte(match), &payload); err != nil {
			return nil, err
		}
	}

	idText := strings.Trim(strings.TrimSpace(string(payload.CarID)), `"`)
	if idText == "" || idText == "null" {
		return nil, errors.New("response has no car_id")
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid car_id %q", idText)
	}

	return &providers.RecommendationResult{
		ListingID: id,
		Reason:    strings.TrimSpace(payload.Reason),
	}, nil
}

func buildTranslationPrompt(texts []string, source, target string) (string, error) {
	data, err := json.Marshal(texts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Source language: %s\nTarget language: %s\nTexts:\n%s", source, target, data), nil
}

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

func parseTranslations(text string, want int) ([]string, error) {
	raw := strings.TrimSpace(text)
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		match := jsonArrayRe.FindString(raw)
		if match == "" {
			return nil, errors.New("no json array in response")
		}
		if err := json.Unmarshal([]byte(match), &out); err != nil {
			return nil, err
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("expected %d translations, got %d", want, len(out))
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out, nil
}
