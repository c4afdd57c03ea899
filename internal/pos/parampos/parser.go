package parampos

import (
	"strconv"

	"github.com/odakpay/posbridge/internal/pos"
	"github.com/odakpay/posbridge/internal/pos/posxml"
)

// ucdHTMLMarkers are the stray characters the service is known to leave
// around the entity-encoded UCD_HTML fragment.
const ucdHTMLMarkers = "\uFEFF\r\n\t '"

// initOutcome is the parsed TP_WMD_UCD (or TP_WMD_Pay) result.
type initOutcome struct {
	Sonuc     int64
	SonucStr  string
	IslemID   string
	IslemGUID string
	UCDHTML   string
	UCDURL    string
	UCDMD     string
}

// parseInit normalizes a TP_WMD_UCD / TP_WMD_Pay response. The envelope may
// echo intermediate *Result nodes; the last one for the operation wins.
func parseInit(raw []byte, operation string) (*initOutcome, error) {
	node, err := resultNode(raw, operation)
	if err != nil {
		return nil, err
	}
	out := &initOutcome{
		Sonuc:     parseSonuc(node.ChildText("Sonuc")),
		SonucStr:  node.ChildText("Sonuc_Str"),
		IslemID:   node.ChildText("Islem_ID"),
		IslemGUID: node.ChildText("Islem_GUID"),
		UCDURL:    node.ChildText("UCD_URL"),
		UCDMD:     node.ChildText("UCD_MD"),
	}
	if html := node.ChildText("UCD_HTML"); html != "" && html != "NONSECURE" {
		out.UCDHTML = posxml.CleanEmbeddedHTML(html, ucdHTMLMarkers)
	}
	return out, nil
}

// parseCancelRefund normalizes a TP_Islem_Iptal_Iade_Kismi2 response.
// Sonuc above zero is the only success indicator; Sonuc_Str carries the
// bank-supplied message either way.
func parseCancelRefund(raw []byte) (*pos.Result, error) {
	node, err := resultNode(raw, "TP_Islem_Iptal_Iade_Kismi2")
	if err != nil {
		return nil, err
	}
	sonuc := parseSonuc(node.ChildText("Sonuc"))
	message := node.ChildText("Sonuc_Str")
	code := node.ChildText("Banka_Sonuc_Kod")
	if code == "" {
		code = strconv.FormatInt(sonuc, 10)
	}
	return &pos.Result{
		OK:      sonuc > 0,
		Code:    code,
		Message: message,
		Raw:     raw,
	}, nil
}

func resultNode(raw []byte, operation string) (*posxml.Node, error) {
	root, err := posxml.Parse(raw)
	if err != nil {
		return nil, pos.ResponseNotFound("turkpos response is not parseable xml: " + err.Error())
	}
	node := root.LastMatching(operation + "Result")
	if node == nil {
		node = root.LastMatching("Result")
	}
	if node == nil {
		return nil, pos.ResponseNotFound("no result node for " + operation)
	}
	return node, nil
}

func parseSonuc(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
