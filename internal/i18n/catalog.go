// Package i18n holds the English and Korean message table and formats
// amounts for display.
package i18n

import (
	"sync"

	"github.com/cleared-dev/teller/internal/model"
)

// Catalog is an immutable key to per-language text table.
type Catalog struct {
	entries map[string]map[model.Language]string
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c := &Catalog{entries: make(map[string]map[model.Language]string, len(messages))}
	for key, m := range messages {
		c.entries[key] = map[model.Language]string{model.English: m[0], model.Korean: m[1]}
	}
	return c
})

// Default returns the shared catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// Lookup returns the text for key in lang, falling back to English.
func (c *Catalog) Lookup(key string, lang model.Language) (string, bool) {
	m, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if s, ok := m[lang]; ok && s != "" {
		return s, true
	}
	return m[model.English], true
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Message keys used outside error reporting.
const (
	KeyWelcome           = "WELCOME"
	KeySelectLanguage    = "SELECT_LANGUAGE"
	KeyEnterPIN          = "ENTER_PIN"
	KeyCardAccepted      = "CARD_ACCEPTED"
	KeySessionStarted    = "SESSION_STARTED"
	KeyAdminSession      = "ADMIN_SESSION"
	KeyAttemptsRemaining = "ATTEMPTS_REMAINING"
	KeyCardRetained      = "CARD_RETAINED"
	KeyDepositSuccess    = "DEPOSIT_SUCCESS"
	KeyWithdrawalSuccess = "WITHDRAWAL_SUCCESS"
	KeyTransferSuccess   = "TRANSFER_SUCCESS"
	KeyFeeCharged        = "FEE_CHARGED"
	KeyChangeAmount      = "CHANGE_AMOUNT"
	KeyCurrentBalance    = "CURRENT_BALANCE"
	KeyDispensed         = "DISPENSED"
	KeyHistoryExported   = "HISTORY_EXPORTED"
	KeyCashRestocked     = "CASH_RESTOCKED"
	KeySessionSummary    = "SESSION_SUMMARY"
	KeyGoodbye           = "GOODBYE"
)

// messages holds {English, Korean}. Error kinds use {expected}, {supplied}
// and {remaining} placeholders; the rest take fmt verbs.
var messages = map[string][2]string{
	KeyWelcome:           {"Welcome to terminal %s", "%s 단말기에 오신 것을 환영합니다"},
	KeySelectLanguage:    {"Select language: 1. English 2. Korean", "언어를 선택하세요: 1. English 2. 한국어"},
	KeyEnterPIN:          {"Please enter your PIN", "비밀번호를 입력하세요"},
	KeyCardAccepted:      {"Card accepted (%s)", "카드가 확인되었습니다 (%s)"},
	KeySessionStarted:    {"Session %s started", "세션 %s 이(가) 시작되었습니다"},
	KeyAdminSession:      {"Administrator session started", "관리자 세션이 시작되었습니다"},
	KeyAttemptsRemaining: {"%d attempts remaining", "남은 시도 횟수: %d"},
	KeyCardRetained:      {"Too many wrong PINs. Your card has been retained.", "비밀번호 오류 횟수 초과로 카드가 회수되었습니다."},
	KeyDepositSuccess:    {"Deposited %s", "%s 입금되었습니다"},
	KeyWithdrawalSuccess: {"Withdrew %s", "%s 출금되었습니다"},
	KeyTransferSuccess:   {"Transferred %s to %s", "%s 을(를) %s 계좌로 이체했습니다"},
	KeyFeeCharged:        {"Fee: %s", "수수료: %s"},
	KeyChangeAmount:      {"Change: %s", "거스름돈: %s"},
	KeyCurrentBalance:    {"Balance: %s", "잔액: %s"},
	KeyDispensed:         {"Dispensed bills: %s", "지급 지폐: %s"},
	KeyHistoryExported:   {"%d transactions exported", "거래 %d건을 내보냈습니다"},
	KeyCashRestocked:     {"Cash on hand: %s", "보유 현금: %s"},
	KeySessionSummary:    {"Session %s ended after %s with %d transactions", "세션 %s 종료 (이용 시간 %s, 거래 %d건)"},
	KeyGoodbye:           {"Thank you for using our service", "이용해 주셔서 감사합니다"},

	string(model.KindAccountNotFound):             {"Account not found", "계좌를 찾을 수 없습니다"},
	string(model.KindInvalidAccount):              {"This account cannot be used with the inserted card", "삽입한 카드로 사용할 수 없는 계좌입니다"},
	string(model.KindInvalidCardFormat):           {"Card number must be 12 digits", "카드 번호는 12자리여야 합니다"},
	string(model.KindInvalidPinFormat):            {"PIN must be 4 digits ({remaining} attempts remaining)", "비밀번호는 4자리여야 합니다 (남은 시도 {remaining}회)"},
	string(model.KindWrongPin):                    {"Wrong PIN ({remaining} attempts remaining)", "비밀번호가 틀렸습니다 (남은 시도 {remaining}회)"},
	string(model.KindPinAttemptsExceeded):         {"Too many wrong PINs. Your card has been retained.", "비밀번호 오류 횟수 초과로 카드가 회수되었습니다."},
	string(model.KindInsufficientFunds):           {"Insufficient funds: need {expected}, balance {supplied}", "잔액이 부족합니다: 필요 {expected}, 잔액 {supplied}"},
	string(model.KindInsufficientCash):            {"Not enough cash in this terminal: need {expected}, available {supplied}", "단말기 현금이 부족합니다: 필요 {expected}, 보유 {supplied}"},
	string(model.KindInfeasibleDenomination):      {"Cannot make {expected} from the bills available", "보유 지폐로 {expected}을(를) 지급할 수 없습니다"},
	string(model.KindInsufficientFee):             {"Insufficient fee: required {expected}, paid {supplied}", "수수료가 부족합니다: 필요 {expected}, 투입 {supplied}"},
	string(model.KindMaxBillsExceeded):            {"Too many bills: at most {expected}, got {supplied}", "지폐 매수 초과: 최대 {expected}장, 투입 {supplied}장"},
	string(model.KindMaxWithdrawalsExceeded):      {"Withdrawal limit of {expected} per session reached", "세션당 출금 한도 {expected}회를 초과했습니다"},
	string(model.KindMaxCheckDepositsExceeded):    {"Check deposit limit of {expected} per session reached", "세션당 수표 입금 한도 {expected}회를 초과했습니다"},
	string(model.KindInvalidCheckAmount):          {"Check amount must be at least {expected}", "수표 금액은 최소 {expected} 이상이어야 합니다"},
	string(model.KindInvalidDestinationAccount):   {"Invalid destination account", "유효하지 않은 입금 계좌입니다"},
	string(model.KindMaxWithdrawalAmountExceeded): {"Withdrawal limit is {expected} per transaction", "1회 출금 한도는 {expected}입니다"},
	string(model.KindInvalidAmount):               {"Invalid amount", "잘못된 금액입니다"},
	string(model.KindInvalidDenomination):         {"Bills of {supplied} are not accepted", "{supplied} 지폐는 사용할 수 없습니다"},
	string(model.KindChangeDeclined):              {"Fee is {expected}, you inserted {supplied}. Transaction cancelled.", "수수료는 {expected}이며 {supplied}을(를) 투입했습니다. 거래가 취소되었습니다."},
	string(model.KindNoCardInserted):              {"Please insert a card", "카드를 넣어 주세요"},
	string(model.KindNoActiveSession):             {"No active session", "진행 중인 세션이 없습니다"},
	string(model.KindSessionActive):               {"A session is already in progress", "이미 진행 중인 세션이 있습니다"},
	string(model.KindSessionEnded):                {"Session has ended", "세션이 종료되었습니다"},
	string(model.KindAdminRequired):               {"Administrator card required", "관리자 카드가 필요합니다"},
	string(model.KindDuplicateAccount):            {"Account already exists", "이미 존재하는 계좌입니다"},
	string(model.KindBalanceOverflow):             {"The destination account cannot accept this amount", "입금 계좌가 이 금액을 받을 수 없습니다"},
}
