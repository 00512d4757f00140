package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/config"
	"github.com/Vishaljain290502/Rydr/internal/pkg/redis"
	"github.com/google/uuid"
)

// Проверка Redis перед включением кэша поездок:
// go run ./scripts/check_trip_cache.go
func main() {
	fmt.Println("=========================================")
	fmt.Println("Trip cache check")
	fmt.Println("=========================================")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fail("load config", err)
	}

	client, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		fail("connect to Redis", err)
	}
	defer client.Close()

	fmt.Printf("✅ Connected to Redis at %s\n\n", cfg.Redis.Address())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Test 1: запись карточки поездки
	fmt.Println("Test 1: SET trip card")
	trip := &domain.Trip{
		ID:                 uuid.New(),
		Host:               domain.TripUser{ID: uuid.New(), FirstName: "Cache", LastName: "Check"},
		Source:             domain.NewPoint(18.5204, 73.8567),
		SourceAddress:      "Pune",
		Destination:        domain.NewPoint(19.0760, 72.8777),
		DestinationAddress: "Mumbai",
		StartDate:          time.Now().UTC(),
		SeatCapacity:       3,
		SeatsAvailable:     3,
		Participants:       []domain.TripUser{},
		Status:             domain.TripStatusScheduled,
	}
	key := "trip:" + trip.ID.String()

	if err := client.SetJSON(ctx, key, trip, cfg.Trips.CacheTTL); err != nil {
		fail("SET", err)
	}
	fmt.Printf("✅ SET %s (ttl %s)\n\n", key, cfg.Trips.CacheTTL)

	// Test 2: чтение и сверка
	fmt.Println("Test 2: GET trip card")
	var cached domain.Trip
	if err := client.GetJSON(ctx, key, &cached); err != nil {
		fail("GET", err)
	}
	if cached.ID != trip.ID || cached.Source.Latitude() != trip.Source.Latitude() {
		fail("compare", fmt.Errorf("cached trip differs from stored one"))
	}
	fmt.Println("✅ Cached trip matches")
	fmt.Println()

	// Test 3: инвалидация
	fmt.Println("Test 3: DEL (invalidation)")
	if err := client.Del(ctx, key); err != nil {
		fail("DEL", err)
	}
	exists, err := client.Exists(ctx, key)
	if err != nil {
		fail("EXISTS", err)
	}
	if exists != 0 {
		fail("EXISTS", fmt.Errorf("key %s still present", key))
	}
	fmt.Println("✅ Trip card invalidated")
	fmt.Println()

	fmt.Println("=========================================")
	fmt.Println("✅ Trip cache is ready")
	fmt.Println("=========================================")
}

func fail(step string, err error) {
	fmt.Printf("❌ %s failed: %v\n", step, err)
	os.Exit(1)
}
