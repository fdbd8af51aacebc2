package twocheckout

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultCheckoutBase is the vendor's hosted checkout endpoint for
// dynamic-product buy links.
const DefaultCheckoutBase = "https://www.2checkout.com/checkout/purchase"

// defaultItemType is the vendor category code applied when a line item does
// not declare one.
const defaultItemType = "PRODUCT"

// ErrInvalidRequest wraps all link-request validation failures.
var ErrInvalidRequest = errors.New("twocheckout: invalid link request")

// Credentials carries the merchant account identity and the link-signing
// secret. Secrets are always injected by the caller; nothing in this package
// reads ambient process state.
type Credentials struct {
	SellerID      string
	BuyLinkSecret string
	CheckoutBase  string
}

// LineItem is one product row included in a signed checkout link. Items are
// immutable once signed: changing any field invalidates the link.
type LineItem struct {
	Name      string
	UnitPrice int64 // minor units
	Qty       int
	Type      string
}

// LinkRequest describes a dynamic-product checkout link to be generated.
type LinkRequest struct {
	MerchantOrderID string
	Currency        string
	Items           []LineItem
	ReturnURL       string
	CancelURL       string
	Variant         Variant
}

// Link is a generated checkout URL together with the signing inputs that
// produced it, kept for logging and dispute debugging.
type Link struct {
	URL       string
	Canonical string
	Signature string
	Total     string
	Variant   Variant
}

// Total sums price times quantity across all items in minor units.
func (r LinkRequest) Total() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.UnitPrice * int64(it.Qty)
	}
	return total
}

// Validate rejects requests that must not reach the signer.
func (r LinkRequest) Validate() error {
	if strings.TrimSpace(r.MerchantOrderID) == "" {
		return fmt.Errorf("%w: merchant order id is required", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(r.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrInvalidRequest)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrInvalidRequest)
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrInvalidRequest, i)
		}
		// The vendor parses ";" as the product-list separator, so a name
		// containing one would be split into two bogus products.
		if strings.Contains(it.Name, ";") {
			return fmt.Errorf("%w: item %d name contains the reserved separator \";\"", ErrInvalidRequest, i)
		}
		if it.UnitPrice <= 0 {
			return fmt.Errorf("%w: item %d price must be positive", ErrInvalidRequest, i)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidRequest, i)
		}
	}
	if err := requireAbsoluteURL("return url", r.ReturnURL); err != nil {
		return err
	}
	return requireAbsoluteURL("cancel url", r.CancelURL)
}

func requireAbsoluteURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidRequest, name)
	}
	return nil
}

// Generate validates the request, signs it with the configured variant and
// assembles the final checkout URL. The returned Link records the canonical
// string and signature so a verifier run with the same inputs can reproduce
// the digest exactly.
func Generate(creds Credentials, req LinkRequest) (Link, error) {
	if err := req.Validate(); err != nil {
		return Link{}, err
	}
	if strings.TrimSpace(creds.SellerID) == "" {
		return Link{}, fmt.Errorf("%w: seller id", ErrMissingField)
	}

	names := make([]string, len(req.Items))
	prices := make([]string, len(req.Items))
	qtys := make([]string, len(req.Items))
	types := make([]string, len(req.Items))
	for i, it := range req.Items {
		names[i] = it.Name
		prices[i] = FormatAmount(it.UnitPrice)
		qtys[i] = strconv.Itoa(it.Qty)
		if it.Type != "" {
			types[i] = it.Type
		} else {
			types[i] = defaultItemType
		}
	}
	total := FormatAmount(req.Total())

	variant := req.Variant
	if variant == "" {
		variant = VariantBuyLink
	}

	var canonical, signature string
	var err error
	switch variant {
	case VariantBuyLink:
		// The signed field set is fixed: it covers everything the
		// vendor treats as tamper-relevant. The URL must carry exactly
		// these values or the vendor rejects the link.
		fields := map[string]string{
			"merchant":          creds.SellerID,
			"currency":          req.Currency,
			"prod":              strings.Join(names, ";"),
			"price":             strings.Join(prices, ";"),
			"qty":               strings.Join(qtys, ";"),
			"return-url":        req.ReturnURL,
			"merchant-order-id": req.MerchantOrderID,
		}
		canonical = Canonicalize(fields)
		signature, err = SignBuyLink(creds.BuyLinkSecret, fields)
	case VariantDynamicTotal:
		canonical = creds.SellerID + req.Currency + total
		signature, err = SignDynamicTotal(creds.BuyLinkSecret, creds.SellerID, req.Currency, total)
	default:
		return Link{}, fmt.Errorf("%w: %q cannot sign checkout links", ErrUnknownVariant, variant)
	}
	if err != nil {
		return Link{}, err
	}

	base := strings.TrimRight(creds.CheckoutBase, "/")
	if base == "" {
		base = DefaultCheckoutBase
	}

	// Query assembly bypasses url.Values on the list-valued fields: the
	// vendor parses the joining ";" literally and would not recognise a
	// percent-encoded "%3B". Individual components are still escaped.
	pairs := make([]string, 0, 12)
	add := func(key, encoded string) {
		pairs = append(pairs, key+"="+encoded)
	}
	add("merchant", url.QueryEscape(creds.SellerID))
	add("currency", url.QueryEscape(req.Currency))
	add("prod", joinEscaped(names))
	add("price", joinEscaped(prices))
	add("qty", joinEscaped(qtys))
	add("type", joinEscaped(types))
	add("return-url", url.QueryEscape(req.ReturnURL))
	add("return-type", "redirect")
	add("cancel-url", url.QueryEscape(req.CancelURL))
	add("merchant-order-id", url.QueryEscape(req.MerchantOrderID))
	add("signature", signature)

	return Link{
		URL:       base + "?" + strings.Join(pairs, "&"),
		Canonical: canonical,
		Signature: signature,
		Total:     total,
		Variant:   variant,
	}, nil
}

func joinEscaped(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.QueryEscape(p)
	}
	return strings.Join(escaped, ";")
}
