package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"salonbooking/internal/config"
	"salonbooking/internal/database"
	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/user"
	"salonbooking/internal/pkg/jwt"
	"salonbooking/internal/pkg/logger"
)

var stylists = []user.CreateStaffRequest{
	{Name: "Ahmet Makas", PhoneNumber: "5551112233", Password: "staff123", Specialty: "Fade Expert"},
	{Name: "Mehmet Tarak", PhoneNumber: "5554445566", Password: "staff123", Specialty: "Beard Specialist"},
}

type demoBooking struct {
	customer, phone string
	stylist         int
	service         string
	dayOffset       int
	time            string
}

var demoBookings = []demoBooking{
	{customer: "Ali Veli", phone: "5320001122", stylist: 0, service: "s1", dayOffset: 0, time: "11:00"},
	{customer: "Ayşe Yılmaz", phone: "5320003344", stylist: 1, service: "s2", dayOffset: 1, time: "14:30"},
	{customer: "Can Demir", phone: "5320005566", stylist: 0, service: "s4", dayOffset: 2, time: "16:00"},
	{customer: "Ali Veli", phone: "5320001122", stylist: 1, service: "s3", dayOffset: -3, time: "10:30"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	if cfg.UsesMemoryStore() {
		log.Fatal("seeding needs a persistent DATABASE_URL")
	}

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	users := user.NewService(user.NewRepository(db), jwt.New(cfg.JWTSecret, cfg.JWTTTL), log)
	if _, err := users.SeedAdmin(ctx); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	}

	staffIDs := make([]string, 0, len(stylists))
	for _, req := range stylists {
		u, err := users.CreateStaff(ctx, req)
		if errors.Is(err, user.ErrPhoneTaken) {
			log.Info("stylist already present", zap.String("name", req.Name))
			staff, err := users.ListStaff(ctx)
			if err != nil {
				log.Fatal("list staff failed", zap.Error(err))
			}
			for _, s := range staff {
				if s.PhoneNumber == user.NormalizePhone(req.PhoneNumber) {
					u = &s
					break
				}
			}
		} else if err != nil {
			log.Fatal("create stylist failed", zap.String("name", req.Name), zap.Error(err))
		}
		if u == nil {
			log.Fatal("stylist missing after seed", zap.String("name", req.Name))
		}
		staffIDs = append(staffIDs, u.ID)
	}

	appts := appointment.NewService(
		appointment.NewGormStore(db, log),
		user.NewDirectory(users),
		nil,
		appointment.GuardTransactional,
		cfg.StoreTimeout,
		log,
	)

	created := 0
	for _, b := range demoBookings {
		_, err := appts.CreateDirect(ctx, appointment.DirectRequest{
			CustomerName:  b.customer,
			CustomerPhone: b.phone,
			StaffID:       staffIDs[b.stylist],
			ServiceID:     b.service,
			Date:          time.Now().AddDate(0, 0, b.dayOffset).Format("2006-01-02"),
			Time:          b.time,
		})
		if errors.Is(err, appointment.ErrSlotOccupied) {
			continue
		}
		if err != nil {
			log.Fatal("create appointment failed", zap.String("customer", b.customer), zap.Error(err))
		}
		created++
	}

	log.Info("seed completed",
		zap.Int("stylists", len(staffIDs)),
		zap.Int("appointments", created),
		zap.String("admin_phone", user.AdminPhone),
	)
}
