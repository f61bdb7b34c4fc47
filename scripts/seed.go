package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Bookjiradech/CARCOM/internal/adapters/database"
	"github.com/Bookjiradech/CARCOM/internal/bootstrap"
	"github.com/Bookjiradech/CARCOM/internal/domain/entities"
	"github.com/Bookjiradech/CARCOM/internal/infrastructure/observability"
	"github.com/Bookjiradech/CARCOM/pkg/config"
	"github.com/Bookjiradech/CARCOM/pkg/normalizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("carcom-seed", cfg.Env)
	ctx := context.Background()

	db, err := bootstrap.OpenDatabase(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, clearing tables before seeding")
		for _, table := range []string{"session_results", "search_sessions", "credit_allotments", "packages", "listings"} {
			if _, err := db.DB().ExecContext(ctx, "DELETE FROM "+table); err != nil {
				log.Fatal().Err(err).Str("table", table).Msg("Failed to reset table")
			}
		}
	}

	creditRepo := database.NewCreditAdapter(db, nil)
	listingRepo := database.NewListingAdapter(db, nil)

	// 1. Packages
	now := time.Now().UTC()
	promoEnd := now.AddDate(0, 1, 0)
	trialDays, monthDays := 7, 30
	packages := []*entities.Package{
		{Code: "TRIAL3", Name: "Free trial", BasePrice: 0, Credits: 3, DurationDays: &trialDays},
		{
			Code: "PRO10", Name: "10 searches", BasePrice: 199, Credits: 10, DurationDays: &monthDays,
			Promotion: &entities.Promotion{Code: "LAUNCH25", DiscountPercent: 25, Status: "active", StartDate: &now, EndDate: &promoEnd},
		},
		{Code: "PRO30", Name: "30 searches", BasePrice: 499, Credits: 30},
	}
	for _, p := range packages {
		if err := creditRepo.SavePackage(ctx, p); err != nil {
			log.Fatal().Err(err).Str("code", p.Code).Msg("Failed to save package")
		}
		log.Info().Int64("id", p.ID).Str("code", p.Code).Float64("price", p.EffectivePrice(now)).Msg("Seeded package")
	}

	// 2. Credits for the demo user
	userID := int64(1)
	if v, err := strconv.ParseInt(os.Getenv("SEED_USER_ID"), 10, 64); err == nil && v > 0 {
		userID = v
	}
	expires := now.AddDate(0, 0, monthDays)
	allotment := &entities.CreditAllotment{
		UserID:    userID,
		PackageID: packages[1].ID,
		Remaining: packages[1].Credits,
		Status:    entities.AllotmentStatusActive,
		ExpiresAt: &expires,
		CreatedAt: now,
	}
	if err := creditRepo.Grant(ctx, allotment); err != nil {
		log.Fatal().Err(err).Int64("user_id", userID).Msg("Failed to grant credits")
	}
	log.Info().Int64("user_id", userID).Int("credits", allotment.Remaining).Msg("Seeded credit allotment")

	// 3. A few listings so session views work without a scrape
	for _, p := range demoListings() {
		p.Attributes = normalizer.NormalizeAttributes(p.Attributes)
		l, outcome, err := listingRepo.Upsert(ctx, p)
		if err != nil {
			log.Warn().Err(err).Str("url", p.SourceURL).Msg("Failed to seed listing")
			continue
		}
		log.Info().Int64("id", l.ID).Str("outcome", string(outcome)).Str("title", l.Title).Msg("Seeded listing")
	}

	log.Info().Msg("Seeding complete")
}

func demoListings() []*entities.PartialListing {
	intp := func(v int) *int { return &v }
	i64 := func(v int64) *int64 { return &v }
	return []*entities.PartialListing{
		{
			Source: "kaidee", SourceURL: "https://www.kaidee.com/product-demo-1",
			Title: "Honda City 1.0 Turbo SV 2021", Brand: "Honda", Model: "City",
			Year: intp(2021), Price: i64(459000), Mileage: i64(38000), Province: "กรุงเทพมหานคร",
			Attributes: entities.Attributes{"สี": "ขาว", "เชื้อเพลิง": "เบนซิน", "ระบบเกียร์": "อัตโนมัติ", "ประเภทรถ": "รถเก๋ง"},
		},
		{
			Source: "carsome", SourceURL: "https://www.carsome.co.th/buy-car/demo-2",
			Title: "Toyota Yaris Ativ 1.2 Sport 2020", Brand: "Toyota", Model: "Yaris Ativ",
			Year: intp(2020), Price: i64(389000), Mileage: i64(52000), Province: "นนทบุรี",
			Attributes: entities.Attributes{"color": "Silver", "fuel": "Petrol", "gear": "Auto"},
		},
		{
			Source: "roddonjai", SourceURL: "https://www.roddonjai.com/car/demo-3",
			Title: "Mazda 2 1.3 Skyactiv 2019", Brand: "Mazda", Model: "2",
			Year: intp(2019), Price: i64(329000), Mileage: i64(61000), Province: "ชลบุรี",
			Attributes: entities.Attributes{"สี": "แดง", "เกียร์": "ออโต้"},
		},
	}
}
