package pricing

import "fmt"

// FormatMoney renders a minor-unit amount for display. Whole-rupee amounts
// drop the fraction ("₹25"); everything else keeps two digits ("₹25.50").
func FormatMoney(m Money) string {
	neg := ""
	if m < 0 {
		neg = "-"
		m = -m
	}
	rupees := m / RupeeMinorUnits
	paise := m % RupeeMinorUnits
	if paise == 0 {
		return fmt.Sprintf("%s₹%d", neg, rupees)
	}
	return fmt.Sprintf("%s₹%d.%02d", neg, rupees, paise)
}
