package templates

import (
	"fmt"
)

// RenderPendingBookingReminderEmail generates the HTML reminding an owner of
// a booking request awaiting their decision
func RenderPendingBookingReminderEmail(ownerName, carName, serviceName string, totalPrice float64, pendingDays int) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Booking Request Awaiting Your Response - FlexiRide</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #f59e0b 0%%, #f97316 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; }
    .content h2 { color: #111827; margin-top: 0; }
    .highlight-box { background: rgba(245, 158, 11, 0.1); border: 1px solid rgba(245, 158, 11, 0.3); border-radius: 12px; padding: 20px; margin: 20px 0; }
    .highlight-box h3 { color: #b45309; margin-top: 0; font-size: 16px; }
    .cta-button { display: inline-block; background: linear-gradient(135deg, #f59e0b 0%%, #f97316 100%%); color: #fff; padding: 14px 28px; border-radius: 8px; text-decoration: none; font-weight: 700; margin-top: 20px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.1); }
    .footer a { color: #f59e0b; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>⏳ Booking Request Pending</h1>
    </div>
    <div class="content">
      <h2>Hi %s,</h2>
      <p>A renter is still waiting to hear back from you about <strong>%s</strong>.</p>

      <div class="highlight-box">
        <h3>📋 Request details</h3>
        <p style="margin-bottom: 0;">Service: <strong>%s</strong><br>Total: <strong>$%.2f</strong><br>Waiting for: <strong>%d days</strong></p>
      </div>

      <p>Requests you don't confirm or decline leave renters in limbo, and listings that respond quickly get booked more often.</p>
      <a href="https://www.flexiride.app/owner/bookings" class="cta-button">Review Booking Requests</a>
    </div>
    <div class="footer">
      <p>© FlexiRide | <a href="https://www.flexiride.app">flexiride.app</a></p>
      <p><a href="https://www.flexiride.app/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, ownerName, carName, serviceName, totalPrice, pendingDays)
}

// RenderBookingConfirmedEmail generates the HTML receipt sent to a renter
// once their booking is confirmed and paid
func RenderBookingConfirmedEmail(renterName, carName, serviceName string, totalPrice float64) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Booking Confirmed - FlexiRide</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #10b981 0%%, #059669 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; }
    .content h2 { color: #111827; margin-top: 0; }
    .highlight-box { background: rgba(16, 185, 129, 0.1); border: 1px solid rgba(16, 185, 129, 0.3); border-radius: 12px; padding: 20px; margin: 20px 0; }
    .highlight-box h3 { color: #047857; margin-top: 0; font-size: 16px; }
    .cta-button { display: inline-block; background: linear-gradient(135deg, #10b981 0%%, #059669 100%%); color: #fff; padding: 14px 28px; border-radius: 8px; text-decoration: none; font-weight: 700; margin-top: 20px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.1); }
    .footer a { color: #10b981; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>✅ Booking Confirmed!</h1>
    </div>
    <div class="content">
      <h2>Hi %s,</h2>
      <p>Your booking for <strong>%s</strong> is confirmed. You're all set.</p>

      <div class="highlight-box">
        <h3>🧾 Receipt</h3>
        <p style="margin-bottom: 0;">Service: <strong>%s</strong><br>Total paid: <strong>$%.2f</strong></p>
      </div>

      <p>You can review your trip details anytime from your bookings page.</p>
      <a href="https://www.flexiride.app/bookings" class="cta-button">View My Bookings</a>
    </div>
    <div class="footer">
      <p>© FlexiRide | <a href="https://www.flexiride.app">flexiride.app</a></p>
      <p><a href="https://www.flexiride.app/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, renterName, carName, serviceName, totalPrice)
}
