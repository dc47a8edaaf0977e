package recycling

import (
	"fmt"
	"time"
)

// Label returns the short French status label, or nil for unknown and no_recycling.
func Label(info Info) *string {
	var label string
	switch info.Status {
	case StatusExpired:
		label = "Recyclage expiré"
		if info.DeadlineYear != nil {
			label = fmt.Sprintf("Recyclage expiré depuis le 31/12/%d", *info.DeadlineYear)
		}
	case StatusExpiringSoon:
		switch {
		case info.DeadlineYear != nil:
			label = fmt.Sprintf("Recyclage avant fin %d", *info.DeadlineYear)
		case info.DaysRemaining != nil:
			label = fmt.Sprintf("Recyclage dans %d jours", *info.DaysRemaining)
		default:
			label = "Recyclage à planifier"
		}
	case StatusReminder:
		label = "Pensez à planifier votre recyclage"
		if info.DeadlineYear != nil {
			label = fmt.Sprintf("Pensez à recycler (fin %d)", *info.DeadlineYear)
		}
	case StatusValid:
		if info.DeadlineYear == nil {
			return nil
		}
		label = fmt.Sprintf("Valide jusqu'à fin %d", *info.DeadlineYear)
	default:
		return nil
	}
	return &label
}

// FormatDate renders a due date as dd/MM/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
