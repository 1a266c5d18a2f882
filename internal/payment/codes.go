package payment

// ReturnStatus is the decoded outcome of a vnp_ResponseCode. Retryable marks
// the payment-window-expired case, where the client should request a fresh
// payment URL instead of treating the order as declined.
type ReturnStatus struct {
	Code      string
	Message   string
	Success   bool
	Retryable bool
}

func StatusFromCode(code string) ReturnStatus {
	status := ReturnStatus{Code: code}
	switch code {
	case "00":
		status.Message = "payment successful"
		status.Success = true
	case "07":
		status.Message = "transaction suspected of fraud"
	case "09":
		status.Message = "card is not registered for online banking"
	case "10":
		status.Message = "card verification failed more than 3 times"
	case "11":
		status.Message = "payment window expired"
		status.Retryable = true
	case "12":
		status.Message = "card or account is locked"
	case "13":
		status.Message = "wrong OTP"
	case "24":
		status.Message = "customer cancelled the transaction"
	case "51":
		status.Message = "insufficient funds"
	case "65":
		status.Message = "daily transaction limit exceeded"
	case "75":
		status.Message = "bank is under maintenance"
	case "79":
		status.Message = "wrong payment password entered too many times"
	default:
		status.Message = "payment failed"
	}
	return status
}
