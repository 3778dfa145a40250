// Package scheduler runs the periodic background jobs: reminding owners of
// booking requests that have sat in pending too long. Jobs only ever send
// email; lifecycle transitions stay in the hands of the requester, the owner
// and the payment subsystem.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ford69/flexi-ride-api/databases"
	"github.com/ford69/flexi-ride-api/models"
	templates "github.com/ford69/flexi-ride-api/templates/html"
)

// pendingReminderAge is how long a booking may sit in pending before the
// owner gets a nudge
const pendingReminderAge = 48 * time.Hour

// Scheduler handles periodic background jobs for the booking marketplace
type Scheduler struct {
	cron *cron.Cron
	BDB  databases.BookingDatabase
	CDB  databases.CarDatabase
	UDB  databases.UserDatabase
	STDB databases.ServiceTypeDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	bDB databases.BookingDatabase,
	cDB databases.CarDatabase,
	uDB databases.UserDatabase,
	stDB databases.ServiceTypeDatabase,
) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		BDB:  bDB,
		CDB:  cDB,
		UDB:  uDB,
		STDB: stDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Nudge owners about stale pending bookings daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.remindPendingBookings)
	if err != nil {
		zap.S().Errorw("failed to register pending booking reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Booking scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Booking scheduler stopped")
}

// remindPendingBookings emails owners whose booking requests have been
// sitting in pending for more than pendingReminderAge. Each booking is
// reminded at most once; the reminder marker lives outside the lifecycle
// fields so it never bumps the version token clients race on.
func (s *Scheduler) remindPendingBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-pendingReminderAge)
	filter := bson.M{
		"booking.status":         models.BookingPending,
		"booking.createdAt":      bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
		"booking.reminderSentAt": nil,
	}

	stale, err := s.BDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find stale pending bookings", "error", err)
		return
	}

	sent := 0
	for _, booking := range stale {
		if s.sendPendingReminder(ctx, booking) {
			sent++
		}
	}

	zap.S().Infow("Pending booking reminder job complete",
		"staleBookings", len(stale),
		"remindersSent", sent,
	)
}

// sendPendingReminder resolves the owner behind the booking's car and emails
// them. Returns true if the reminder went out.
func (s *Scheduler) sendPendingReminder(ctx context.Context, booking models.Booking) bool {
	cID, err := primitive.ObjectIDFromHex(booking.Details.CarID)
	if err != nil {
		zap.S().Warnw("booking references an invalid car id", "bookingId", booking.ID.Hex())
		return false
	}
	car, err := s.CDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		zap.S().Warnw("booking references a missing car", "bookingId", booking.ID.Hex(), "carId", booking.Details.CarID)
		return false
	}

	owner, err := s.UDB.FindOne(ctx, bson.M{"_id": car.Details.OwnerID})
	if err != nil || owner.Details.Email == "" {
		zap.S().Warnw("owner has no reachable email", "carId", booking.Details.CarID)
		return false
	}

	serviceName := booking.Details.ServiceCode
	if offering, err := s.STDB.FindOne(ctx, bson.M{"serviceType.code": booking.Details.ServiceCode}); err == nil {
		serviceName = offering.Details.Name
	}

	carName := fmt.Sprintf("%s %s", car.Details.Make, car.Details.Model)
	pendingDays := int(time.Since(bookingCreatedAt(booking)).Hours() / 24)

	subject := "Booking Request Awaiting Your Response - FlexiRide"
	htmlContent := templates.RenderPendingBookingReminderEmail(
		owner.Details.Name, carName, serviceName, booking.Details.TotalPrice, pendingDays)
	plainText := fmt.Sprintf("A renter is waiting on your response for %s. Please confirm or decline the booking.", carName)

	if err := s.sendEmail(owner.Details.Email, owner.Details.Name, subject, htmlContent, plainText); err != nil {
		zap.S().Errorw("failed to send pending booking reminder", "error", err, "bookingId", booking.ID.Hex())
		return false
	}

	// mark as reminded without touching the version token
	_, err = s.BDB.UpdateOne(ctx, bson.M{"_id": booking.ID}, bson.M{
		"$set": bson.M{"booking.reminderSentAt": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		zap.S().Warnw("failed to mark booking as reminded", "error", err, "bookingId", booking.ID.Hex())
	}

	zap.S().Infow("Sent pending booking reminder", "bookingId", booking.ID.Hex())
	return true
}

func bookingCreatedAt(booking models.Booking) time.Time {
	if dt, ok := booking.Details.CreatedAt.(primitive.DateTime); ok {
		return dt.Time()
	}
	return time.Now()
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("FlexiRide", "no-reply@flexiride.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
