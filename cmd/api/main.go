package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/dpkpaswan/canteenqr/internal/civil"
	"github.com/dpkpaswan/canteenqr/internal/modules/auth"
	"github.com/dpkpaswan/canteenqr/internal/modules/notify"
	"github.com/dpkpaswan/canteenqr/internal/modules/order"
	"github.com/dpkpaswan/canteenqr/internal/modules/payment"
	"github.com/dpkpaswan/canteenqr/internal/modules/token"
	"github.com/dpkpaswan/canteenqr/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	// ── Civil timezone ──────────────────────────────────────
	offset := civil.DefaultOffsetMinutes
	if v := os.Getenv("CANTEEN_TZ_OFFSET_MIN"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid CANTEEN_TZ_OFFSET_MIN: %v", err)
		}
	}
	zone := civil.FixedZone("canteen-local", offset)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	m := metrics.New("api")
	router.Handle("/metrics", metrics.Handler())

	// ── Sessions over the external identity provider ────────
	authService := auth.NewService(os.Getenv("SESSION_JWT_SECRET"))
	staffSubjects := strings.Split(os.Getenv("STAFF_SUBJECTS"), ",")
	auth.NewHandler(authService, staffSubjects).RegisterRoutes(router)

	// ── Notifications (fire-and-forget) ─────────────────────
	var sender notify.Sender = notify.NopSender{}
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		sender = notify.NewWebhookSender(url)
	}
	dispatcher := notify.NewDispatcher(sender)

	// ── Token allocation & order lifecycle ──────────────────
	counterStore := token.NewPostgresCounterStore(db)
	allocator := token.NewAllocator(counterStore, zone, os.Getenv("TOKEN_PREFIX"), m)

	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, allocator, zone, dispatcher, m)
	order.NewHandler(orderService).RegisterRoutes(router, authService.Middleware(auth.RoleStaff))

	// ── Payment completion webhook ──────────────────────────
	verifier := payment.NewVerifier(os.Getenv("RECEIPT_HMAC_SECRET"))
	paymentService := payment.NewService(verifier, orderService)
	payment.NewHandler(paymentService).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Canteen API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
