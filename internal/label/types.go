// Package label turns the text recovered from a carrier shipment PDF into a
// structured shipment record.
//
// Parsing runs in two passes. Pass A reads the declaration page geometrically,
// splitting text runs into sender and recipient columns by x-coordinate. Pass B
// scans the cleaned full text for document-wide fields and the product table.
// Every field has a documented default, so Parse never fails.
package label

// TextItem is a positioned text run from the declaration page.
type TextItem struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PageData is the transient input of a single parse.
type PageData struct {
	Page2Items []TextItem `json:"page2_items"`
	AllLines   []string   `json:"all_lines"`
	FullText   string     `json:"full_text"`
}

// ProdItem is one row of the declaration of content.
type ProdItem struct {
	N    string `json:"n"`
	Desc string `json:"desc"`
	Var  string `json:"var"`
	Qtd  string `json:"qtd"`
	Val  string `json:"val"`
}

// Recipient holds the five printed destination lines plus the postal code.
type Recipient struct {
	Name         string `json:"name"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// Sender is the shipping party.
type Sender struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// LabelData is the immutable result of parsing one shipment document.
type LabelData struct {
	Tracking  string     `json:"tracking"`
	Contract  string     `json:"contract"`
	OrderID   string     `json:"order_id"`
	Modality  string     `json:"modality"`
	Recipient Recipient  `json:"recipient"`
	Sender    Sender     `json:"sender"`
	Products  []ProdItem `json:"products"`
	TotalQtd  int        `json:"total_qtd"`
	TotalVal  string     `json:"total_val"`
}

// FirstProductDesc returns the description used for file naming.
func (d *LabelData) FirstProductDesc() string {
	if d == nil || len(d.Products) == 0 || d.Products[0].Desc == "" {
		return "produto"
	}
	return d.Products[0].Desc
}

// CodePayload is the value carried by both QR codes: order id, then tracking
// code, then a literal placeholder.
func (d *LabelData) CodePayload() string {
	switch {
	case d == nil:
		return PlaceholderQR
	case d.OrderID != "":
		return d.OrderID
	case d.Tracking != "":
		return d.Tracking
	default:
		return PlaceholderQR
	}
}

// Format selects the physical output size.
type Format string

const (
	FormatThermal Format = "thermal"
	FormatA4      Format = "a4"
)

// ParseFormat maps user input to a Format. The short forms "t" and "a" are
// accepted; anything unrecognized is thermal.
func ParseFormat(s string) Format {
	switch s {
	case "a", "A4", "a4":
		return FormatA4
	default:
		return FormatThermal
	}
}

// Placeholders printed when a code payload is missing.
const (
	PlaceholderTracking = "AD000000000BR"
	PlaceholderQR       = "NOID"
)
