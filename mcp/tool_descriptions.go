package mcp

const (
	toolGetCategories    = "get_categories"
	toolGetQuestion      = "get_question"
	toolCheckAnswer      = "check_answer"
	toolGetScore         = "get_score"
	toolCheckAccess      = "check_access"
	toolConfirmPayment   = "confirm_payment"
	toolGetWalletBalance = "get_wallet_balance"
)

func buildToolDescriptions() map[string]string {
	return map[string]string{
		toolGetCategories:    "Get all available trivia categories.",
		toolGetQuestion:      "Get a random trivia question, optionally filtered by category. May report payment_required when the user has no valid day pass.",
		toolCheckAnswer:      "Check the user's answer against their active question. The question is consumed whether or not the answer is correct.",
		toolGetScore:         "Get the user's current winning-streak score.",
		toolCheckAccess:      "Check whether the user holds a valid trivia day pass.",
		toolConfirmPayment:   "Wait for a dispatched payment to be confirmed and activate the day pass.",
		toolGetWalletBalance: "Get the server wallet balance (admin only).",
	}
}
