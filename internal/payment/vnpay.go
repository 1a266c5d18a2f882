package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Gateway amount bounds in VND.
const (
	MinAmount = 5000
	MaxAmount = 1_000_000_000
)

const dateLayout = "20060102150405"

// The gateway expects create/expire dates in GMT+7 regardless of server zone.
var gatewayZone = time.FixedZone("GMT+7", 7*60*60)

type Config struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
}

// Client builds signed VNPay redirect URLs and verifies return callbacks.
type Client struct {
	cfg Config
	now func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

// BuildPayURL produces the redirect URL for one payment attempt. txnRef is the
// order code, so the return callback can locate the awaiting order; a retry
// after a retryable decline reuses it and only the expiry window is fresh.
func (c *Client) BuildPayURL(amount float64, txnRef, orderInfo, clientIP string) (string, error) {
	if amount < MinAmount || amount >= MaxAmount {
		return "", fmt.Errorf("amount must be between %d and %d VND", MinAmount, MaxAmount)
	}

	created := c.now().In(gatewayZone)
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(AmountValue(amount), 10),
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": created.Format(dateLayout),
		"vnp_ExpireDate": created.Add(7 * time.Minute).Format(dateLayout),
	}

	data := hashData(params)
	return c.cfg.BaseURL + "?" + data + "&vnp_SecureHash=" + c.sign(data), nil
}

// VerifyReturn checks the secure hash on a return callback's query parameters.
func (c *Client) VerifyReturn(query url.Values) bool {
	got := strings.ToLower(query.Get("vnp_SecureHash"))
	if got == "" {
		return false
	}

	params := make(map[string]string)
	for key := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(key, "vnp_") {
			params[key] = query.Get(key)
		}
	}

	want := c.sign(hashData(params))
	return hmac.Equal([]byte(got), []byte(want))
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// hashData joins the non-empty params in key order, with values query-escaped
// the way the gateway computes its own signature (spaces as '+').
func hashData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+url.QueryEscape(params[key]))
	}
	return strings.Join(parts, "&")
}

// AmountValue converts a VND amount to the gateway's x100 integer form, the
// representation used for both the pay URL and callback comparison. Comparing
// in integer space avoids float rounding drift on non-integral totals.
func AmountValue(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ParseAmount decodes a callback's vnp_Amount into the same integer form.
func ParseAmount(value string) (int64, error) {
	raw, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid vnp_Amount %q", value)
	}
	return raw, nil
}
