package common

import (
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/utils"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/yeqown/go-qrcode"
)

// SendPurchaseConfirmation emails the buyer their order summary and ticket
// QR code. Fire-and-forget: failures are logged and never affect the
// committed purchase.
func SendPurchaseConfirmation(purchase *models.Purchase) {
	var user models.User
	if err := db.GetDb().
		Where(&models.User{ID: purchase.UserID}).
		First(&user).
		Error; err != nil {
		log.Printf("Error loading buyer for purchase %d: %s\n", purchase.ID, err.Error())
		return
	}
	code, err := utils.NewAdmissionCode(purchase.ID, purchase.ReferenceID)
	if err != nil {
		log.Printf("Error building admission code for purchase %d: %s\n", purchase.ID, err.Error())
		return
	}
	qrc, err := qrcode.New(code)
	if err != nil {
		log.Printf("Error generating QR code for purchase %d: %s\n", purchase.ID, err.Error())
		return
	}
	filepath := path.Join(os.TempDir(), fmt.Sprintf("%s.jpeg", purchase.ReferenceID))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return
	}
	defer os.Remove(filepath)

	body := fmt.Sprintf(
		"Your order %s is confirmed.\n\nTotal charged: %.2f %s\nPresent the attached QR code at the venue entrance.",
		purchase.ReferenceID, purchase.Total, purchase.Currency,
	)
	if err := lib.SendMail(&lib.SendMailInput{
		From:        os.Getenv("SMTP_FROM"),
		FromName:    "etix",
		To:          []string{user.Email},
		Subject:     fmt.Sprintf("Order confirmation %s", purchase.ReferenceID),
		Body:        body,
		Attachments: []string{filepath},
	}); err != nil {
		log.Printf("Error sending confirmation for purchase %d: %s\n", purchase.ID, err.Error())
	}
}
