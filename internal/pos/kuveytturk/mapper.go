package kuveytturk

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/odakpay/posbridge/internal/pos"
)

const (
	apiVersion   = "TDV2.0.0"
	soapNS       = "http://boa.net/BOA.Integration.VirtualPos/Service"
	currencyTRY  = "0949"
	tokenTypeSec = "SecureCommonPayment"
)

func currencyCode(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "TRY", "TL":
		return currencyTRY
	case "USD":
		return "0840"
	case "EUR":
		return "0978"
	default:
		return currencyTRY
	}
}

// registerPayload builds the KTPay SecurePaymentRegister request body.
// MerchantId, CustomerId, UserName and HashData are injected from the
// credential bundle; the caller never sets them directly.
func registerPayload(p *pos.PaymentPayload, cfg pos.Config) map[string]string {
	amount := pos.MinorString(p.Amount)
	fields := map[string]string{
		"TransactionType": "Sale",
		"TokenType":       tokenTypeSec,
		"SuccessUrl":      p.SuccessURL,
		"FailUrl":         p.FailURL,
		"Amount":          amount,
		"CurrencyCode":    currencyCode(p.Currency),
		"CardHolderIP":    p.IP,
		"MerchantOrderId": p.OrderID,
		"Email":           p.Email,
		"Language":        p.LanguageOrDefault(),
		"MerchantId":      cfg.MerchantID,
		"CustomerId":      cfg.CustomerID,
		"UserName":        cfg.Username,
	}
	if p.InstallmentCount != nil {
		fields["InstallmentCount"] = strconv.Itoa(*p.InstallmentCount)
	}
	if p.DeferringCount != nil {
		fields["DeferringCount"] = strconv.Itoa(*p.DeferringCount)
	}
	fields["HashData"] = signRegister(cfg.MerchantID, p.OrderID, amount, p.SuccessURL, p.FailURL, cfg.Username, cfg.Password)
	return fields
}

// formFields builds the hidden fields for a browser POST to
// ThreeDModelPayGate. Card inputs are appended by the card-entry UI and are
// listed separately so this layer never handles their values.
func formFields(p *pos.PaymentPayload, cfg pos.Config) (map[string]string, []string) {
	amount := pos.MinorString(p.Amount)
	installments := "0"
	if p.InstallmentCount != nil {
		installments = strconv.Itoa(*p.InstallmentCount)
	}
	fields := map[string]string{
		"APIVersion":          apiVersion,
		"MerchantId":          cfg.MerchantID,
		"CustomerId":          cfg.CustomerID,
		"UserName":            cfg.Username,
		"HashData":            signForm(cfg.MerchantID, p.OrderID, amount, p.SuccessURL, p.FailURL, cfg.Username, cfg.Password),
		"OkUrl":               p.SuccessURL,
		"FailUrl":             p.FailURL,
		"Amount":              amount,
		"DisplayAmount":       amount,
		"MerchantOrderId":     p.OrderID,
		"InstallmentCount":    installments,
		"CurrencyCode":        currencyCode(p.Currency),
		"TransactionType":     "Sale",
		"TransactionSecurity": "3",
	}
	cardFields := []string{
		"CardNumber",
		"CardExpireDateMonth",
		"CardExpireDateYear",
		"CardCVV2",
		"CardHolderName",
	}
	return fields, cardFields
}

type reversalRequest struct {
	Operation       string // SaleReversal, DrawBack or PartialDrawback
	OrderID         string
	MerchantOrderID string
	RRN             string
	Stan            string
	AuthCode        string
	Amount          string // already the exact wire form, "0" for voids
}

// reversalEnvelope renders the BOA SOAP document for a reversal-class
// operation. The service validates document shape strictly and each operation
// accepts a different VPosMessage field set: SaleReversal omits the
// settlement-adjustment fields (FECAmount, QeryId, DebtId, SurchargeAmount,
// SGKDebtAmount) that DrawBack and PartialDrawback require, and DrawBack
// alone carries a CardType hint. Every interpolated value is XML-escaped.
func reversalEnvelope(req reversalRequest, cfg pos.Config) []byte {
	hash := signReversal(cfg.MerchantID, req.MerchantOrderID, req.Amount, cfg.Username, cfg.Password)
	drawback := req.Operation == "DrawBack" || req.Operation == "PartialDrawback"

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ser="` + soapNS + `">`)
	b.WriteString(`<soapenv:Header/><soapenv:Body>`)
	fmt.Fprintf(&b, "<ser:%s><ser:request>", req.Operation)
	b.WriteString("<ser:IsFromExternalNetwork>true</ser:IsFromExternalNetwork>")
	b.WriteString("<ser:BusinessKey>0</ser:BusinessKey>")
	b.WriteString("<ser:ResourceId>0</ser:ResourceId>")
	b.WriteString("<ser:ActionId>0</ser:ActionId>")
	b.WriteString("<ser:LanguageId>0</ser:LanguageId>")
	writeElem(&b, "CustomerId", cfg.CustomerID)
	b.WriteString("<ser:MailOrTelephoneOrder>true</ser:MailOrTelephoneOrder>")
	writeElem(&b, "RRN", req.RRN)
	writeElem(&b, "Stan", req.Stan)
	writeElem(&b, "MerchantId", cfg.MerchantID)
	writeElem(&b, "Amount", req.Amount)
	writeElem(&b, "ProvisionNumber", req.AuthCode)
	writeElem(&b, "OrderId", req.OrderID)
	b.WriteString("<ser:VPosMessage>")
	writeElem(&b, "APIVersion", apiVersion)
	b.WriteString("<ser:InstallmentMaturityCommisionFlag>0</ser:InstallmentMaturityCommisionFlag>")
	writeElem(&b, "HashData", hash)
	writeElem(&b, "MerchantId", cfg.MerchantID)
	b.WriteString("<ser:SubMerchantId>0</ser:SubMerchantId>")
	writeElem(&b, "CustomerId", cfg.CustomerID)
	writeElem(&b, "UserName", cfg.Username)
	if req.Operation == "DrawBack" {
		b.WriteString("<ser:CardType>VISA</ser:CardType>")
	}
	b.WriteString("<ser:BatchID>0</ser:BatchID>")
	writeElem(&b, "TransactionType", req.Operation)
	b.WriteString("<ser:InstallmentCount>0</ser:InstallmentCount>")
	writeElem(&b, "Amount", req.Amount)
	writeElem(&b, "CancelAmount", req.Amount)
	writeElem(&b, "DisplayAmount", req.Amount)
	writeElem(&b, "MerchantOrderId", req.MerchantOrderID)
	if drawback {
		b.WriteString("<ser:FECAmount>0</ser:FECAmount>")
	}
	writeElem(&b, "CurrencyCode", currencyTRY)
	if drawback {
		b.WriteString("<ser:QeryId>0</ser:QeryId>")
		b.WriteString("<ser:DebtId>0</ser:DebtId>")
		b.WriteString("<ser:SurchargeAmount>0</ser:SurchargeAmount>")
		b.WriteString("<ser:SGKDebtAmount>0</ser:SGKDebtAmount>")
	}
	b.WriteString("<ser:TransactionSecurity>1</ser:TransactionSecurity>")
	b.WriteString("</ser:VPosMessage>")
	fmt.Fprintf(&b, "</ser:request></ser:%s>", req.Operation)
	b.WriteString("</soapenv:Body></soapenv:Envelope>")
	return []byte(b.String())
}

func writeElem(b *strings.Builder, name, value string) {
	b.WriteString("<ser:" + name + ">")
	_ = xml.EscapeText(b, []byte(value))
	b.WriteString("</ser:" + name + ">")
}
