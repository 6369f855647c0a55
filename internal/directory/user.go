package directory

import (
	"strings"
	"time"
)

// User is a registered person in the directory. ID doubles as the QR payload
// printed on the user's badge.
type User struct {
	ID         string    `json:"user_id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	Branch     string    `json:"branch"`
	ImagePath  string    `json:"image_path,omitempty"`
	QRPath     string    `json:"qr_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserID derives the identity token from roll number and name. Spaces become
// underscores so the token survives QR encoding and file naming unchanged.
func UserID(roll, name string) string {
	return strings.ReplaceAll(roll+"_"+name, " ", "_")
}
