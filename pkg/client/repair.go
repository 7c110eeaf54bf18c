package client

import "strings"

// Some PxStat tables (e.g. SAP2011T1T1AED) carry Irish fadas that were
// decoded with the wrong code page.
var fadaRepairer = strings.NewReplacer(
	"┴", "Á",
	"ß", "á",
	"╔", "É",
	"Θ", "é",
	"φ", "í",
	"╙", "Ó",
	"≤", "ó",
	"·", "ú",
)

// RepairText replaces misencoded fada characters in a response body. The
// replaced characters are never JSON syntax, so repairing the raw document
// is equivalent to repairing each string in it.
func RepairText(body []byte) []byte {
	return []byte(fadaRepairer.Replace(string(body)))
}
