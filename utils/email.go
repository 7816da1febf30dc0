package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/snowstorm/snowstorm_backend/models"
)

func smtpDialer() (*gomail.Dialer, string) {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}
	return gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass), smtpUser
}

// SendBuyerReceipt emails the buyer a purchase receipt. When the purchased
// ebook has a deliverable file on disk it is attached to the message. Called
// fire-and-forget after verification: failures are logged, never returned to
// the payment flow.
func SendBuyerReceipt(buyer *models.User, order *models.Order, ebook *models.Ebook) {
	if buyer == nil || buyer.Email == "" {
		return
	}

	title := "your purchase"
	if ebook != nil && ebook.Title != "" {
		title = ebook.Title
	}

	subject := "Your Snowstorm receipt"
	body := fmt.Sprintf(
		"Hello %s,\n\nThank you for your purchase of %s.\n\nAmount: %s\nPayment ID: %s\nOrder ID: %s\n\nHappy reading!\n- Snowstorm Team",
		buyer.FullName, title, FormatAmount(order.Amount, order.Currency), order.GatewayPaymentID, order.ID.Hex())

	m := gomail.NewMessage()
	d, from := smtpDialer()
	m.SetHeader("From", from)
	m.SetHeader("To", buyer.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if ebook != nil && ebook.AssetPath != "" {
		if _, err := os.Stat(ebook.AssetPath); err == nil {
			m.Attach(ebook.AssetPath)
		} else {
			log.Printf("Ebook asset missing for order %s: %v", order.ID.Hex(), err)
		}
	}

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send receipt email for order %s: %v", order.ID.Hex(), err)
	}
}

// SendAffiliateSaleAlert emails an affiliate about a newly credited sale.
// Fire-and-forget like the buyer receipt.
func SendAffiliateSaleAlert(affiliate *models.Affiliate, buyerName string, order *models.Order) {
	if affiliate == nil || affiliate.Email == "" {
		return
	}
	if buyerName == "" {
		buyerName = "Anonymous"
	}

	subject := "New Sale Registered!"
	body := fmt.Sprintf(
		"Hello %s,\n\nYou just earned a commission from a new sale!\n\nBuyer: %s\nAmount: %s\nCommission: %s\nTime: %s\n\nKeep up the great work!\n- Snowstorm Team",
		affiliate.Name,
		buyerName,
		FormatAmount(order.Amount, order.Currency),
		FormatAmount(models.CommissionAmount(order.Amount, order.CommissionRate), order.Currency),
		time.Now().Format(time.RFC1123))

	m := gomail.NewMessage()
	d, from := smtpDialer()
	m.SetHeader("From", from)
	m.SetHeader("To", affiliate.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send affiliate alert for order %s: %v", order.ID.Hex(), err)
	}
}

// FormatAmount renders a minor-unit amount for email bodies, e.g. ₹299.00.
func FormatAmount(minor int64, currency string) string {
	symbol := currency + " "
	if currency == "" || currency == "INR" {
		symbol = "₹"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, minor/100, minor%100)
}
