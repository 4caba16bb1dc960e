package gateway

// Datatrans UPP error codes, as documented for the hosted payment page.
// Missing codes fall back to ErrorMessageUnknown.
var errorMessages = map[string]string{
	"1001":  "missing required parameter",
	"1002":  "invalid parameter format",
	"1003":  "value of parameter not found",
	"1004":  "invalid card number",
	"1400":  "invalid card number",
	"1007":  "access denied by sign control/parameter sign invalid",
	"1008":  "merchant disabled by Datatrans",
	"1401":  "invalid expiration date",
	"1402":  "card expired or blocked",
	"1404":  "card expired or blocked",
	"1403":  "transaction declined by card issuer",
	"1405":  "amount exceeded",
	"3000":  "denied by fraud management",
	"3001":  "denied by fraud management",
	"3002":  "denied by fraud management",
	"3003":  "denied by fraud management",
	"3004":  "denied by fraud management",
	"3005":  "denied by fraud management",
	"3006":  "denied by fraud management",
	"3011":  "denied by fraud management",
	"3012":  "denied by fraud management",
	"3013":  "denied by fraud management",
	"3014":  "denied by fraud management",
	"3015":  "denied by fraud management",
	"3016":  "denied by fraud management",
	"3031":  "declined due to response code 02",
	"3041":  "declined due to post error/post URL check failed",
	"10412": "PayPal duplicate error",
	"-885":  "CC-alias update/insert error",
	"-886":  "CC-alias update/insert error",
	"-887":  "CC-alias does not match with cardno",
	"-888":  "CC-alias not found",
	"-900":  "CC-alias service not enabled",
}

const ErrorMessageUnknown = "undefined error"

// ErrorMessage maps a gateway error code to its diagnostic text.
func ErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return ErrorMessageUnknown
}
