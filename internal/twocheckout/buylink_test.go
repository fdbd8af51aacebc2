package twocheckout_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arfan-dev/storefront-api/internal/twocheckout"
)

var testCreds = twocheckout.Credentials{
	SellerID:      "250123456789",
	BuyLinkSecret: "buylink-secret",
}

func validLinkRequest() twocheckout.LinkRequest {
	return twocheckout.LinkRequest{
		MerchantOrderID: "INV-1001",
		Currency:        "USD",
		Items: []twocheckout.LineItem{
			{Name: "Test Product A", UnitPrice: 1000, Qty: 2},
			{Name: "Test Product B", UnitPrice: 550, Qty: 1},
		},
		ReturnURL: "https://shop.example.com/checkout/return",
		CancelURL: "https://shop.example.com/checkout/cancel",
	}
}

func TestLinkRequestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*twocheckout.LinkRequest)
	}{
		{"missing order id", func(r *twocheckout.LinkRequest) { r.MerchantOrderID = "" }},
		{"bad currency", func(r *twocheckout.LinkRequest) { r.Currency = "DOLLARS" }},
		{"no items", func(r *twocheckout.LinkRequest) { r.Items = nil }},
		{"empty item name", func(r *twocheckout.LinkRequest) { r.Items[0].Name = "  " }},
		{"semicolon in name", func(r *twocheckout.LinkRequest) { r.Items[0].Name = "Widget; Deluxe" }},
		{"zero price", func(r *twocheckout.LinkRequest) { r.Items[0].UnitPrice = 0 }},
		{"negative price", func(r *twocheckout.LinkRequest) { r.Items[1].UnitPrice = -100 }},
		{"zero quantity", func(r *twocheckout.LinkRequest) { r.Items[0].Qty = 0 }},
		{"relative return url", func(r *twocheckout.LinkRequest) { r.ReturnURL = "/return" }},
		{"missing cancel url", func(r *twocheckout.LinkRequest) { r.CancelURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validLinkRequest()
			tt.mutate(&req)
			_, err := twocheckout.Generate(testCreds, req)
			require.ErrorIs(t, err, twocheckout.ErrInvalidRequest)
		})
	}
}

func TestGenerateBuyLink(t *testing.T) {
	t.Parallel()

	link, err := twocheckout.Generate(testCreds, validLinkRequest())
	require.NoError(t, err)

	require.Equal(t, "25.50", link.Total)
	require.Equal(t, twocheckout.VariantBuyLink, link.Variant)

	// Semicolon delimiters must survive as literal characters.
	require.Contains(t, link.URL, "price=10.00;5.50")
	require.Contains(t, link.URL, "qty=2;1")
	require.Contains(t, link.URL, "prod=Test+Product+A;Test+Product+B")
	require.Contains(t, link.URL, "type=PRODUCT;PRODUCT")
	require.Contains(t, link.URL, "merchant=250123456789")
	require.Contains(t, link.URL, "merchant-order-id=INV-1001")
	require.Contains(t, link.URL, "return-type=redirect")
	require.NotContains(t, link.URL, "%3B")
	require.True(t, strings.HasPrefix(link.URL, twocheckout.DefaultCheckoutBase+"?"))
	require.Contains(t, link.URL, "signature="+link.Signature)
}

func TestGenerateSignatureRecomputable(t *testing.T) {
	t.Parallel()

	req := validLinkRequest()
	link, err := twocheckout.Generate(testCreds, req)
	require.NoError(t, err)

	// An independent verifier with the same inputs reproduces the digest.
	fields := map[string]string{
		"merchant":          testCreds.SellerID,
		"currency":          req.Currency,
		"prod":              "Test Product A;Test Product B",
		"price":             "10.00;5.50",
		"qty":               "2;1",
		"return-url":        req.ReturnURL,
		"merchant-order-id": req.MerchantOrderID,
	}
	expected, err := twocheckout.SignBuyLink(testCreds.BuyLinkSecret, fields)
	require.NoError(t, err)
	require.Equal(t, expected, link.Signature)
	require.Equal(t, twocheckout.Canonicalize(fields), link.Canonical)
}

func TestGenerateTamperChangesSignature(t *testing.T) {
	t.Parallel()

	base := validLinkRequest()
	link, err := twocheckout.Generate(testCreds, base)
	require.NoError(t, err)

	tampered := validLinkRequest()
	tampered.Items[1].UnitPrice++ // 5.50 -> 5.51
	other, err := twocheckout.Generate(testCreds, tampered)
	require.NoError(t, err)

	require.NotEqual(t, link.Signature, other.Signature)
}

func TestGenerateDynamicTotalVariant(t *testing.T) {
	t.Parallel()

	req := validLinkRequest()
	req.Variant = twocheckout.VariantDynamicTotal
	link, err := twocheckout.Generate(testCreds, req)
	require.NoError(t, err)

	expected, err := twocheckout.SignDynamicTotal(testCreds.BuyLinkSecret, testCreds.SellerID, "USD", "25.50")
	require.NoError(t, err)
	require.Equal(t, expected, link.Signature)

	// The plain-SHA256 tuple variant differs from the HMAC canonical one.
	hmacLink, err := twocheckout.Generate(testCreds, validLinkRequest())
	require.NoError(t, err)
	require.NotEqual(t, hmacLink.Signature, link.Signature)
}

func TestGenerateFailsFastOnMissingSecret(t *testing.T) {
	t.Parallel()

	creds := twocheckout.Credentials{SellerID: "250123456789"}
	_, err := twocheckout.Generate(creds, validLinkRequest())
	require.ErrorIs(t, err, twocheckout.ErrSecretRequired)

	_, err = twocheckout.Generate(twocheckout.Credentials{BuyLinkSecret: "s"}, validLinkRequest())
	require.ErrorIs(t, err, twocheckout.ErrMissingField)
}

func TestGenerateRejectsVerifyOnlyVariant(t *testing.T) {
	t.Parallel()

	req := validLinkRequest()
	req.Variant = twocheckout.VariantINS
	_, err := twocheckout.Generate(testCreds, req)
	require.ErrorIs(t, err, twocheckout.ErrUnknownVariant)
}
