package types

// MessageKind identifies an inbound message on the extension boundary.
type MessageKind string

const (
	// From the page-injected provider via the content relay
	KindRPCRequest MessageKind = "RPC_REQUEST"

	// Approval decisions from the popup
	KindTransactionApproved MessageKind = "TRANSACTION_APPROVED"
	KindTransactionRejected MessageKind = "TRANSACTION_REJECTED"
	KindConnectionApproved  MessageKind = "CONNECTION_APPROVED"
	KindConnectionRejected  MessageKind = "CONNECTION_REJECTED"
	KindMessageSignApproved MessageKind = "MESSAGE_SIGN_APPROVED"
	KindMessageSignRejected MessageKind = "MESSAGE_SIGN_REJECTED"

	// Wallet lifecycle (popup)
	KindWalletUnlocked    MessageKind = "WALLET_UNLOCKED"
	KindGenerateWallet    MessageKind = "GENERATE_WALLET"
	KindImportWallet      MessageKind = "IMPORT_WALLET"
	KindUnlockWallet      MessageKind = "UNLOCK_WALLET"
	KindLockWallet        MessageKind = "LOCK_WALLET"
	KindResetWallet       MessageKind = "RESET_WALLET"
	KindChangePassword    MessageKind = "CHANGE_PASSWORD"
	KindExportPrivateKey  MessageKind = "EXPORT_PRIVATE_KEY"
	KindCheckWallet       MessageKind = "CHECK_WALLET"
	KindCheckUnlockStatus MessageKind = "CHECK_UNLOCK_STATUS"

	// Funds (popup)
	KindGetBalance      MessageKind = "GET_BALANCE"
	KindEstimateFee     MessageKind = "ESTIMATE_FEE"
	KindSendTransaction MessageKind = "SEND_TRANSACTION"
	KindGetHistory      MessageKind = "GET_HISTORY"

	// Pending requests and connected sites (popup)
	KindGetPendingRequest  MessageKind = "GET_PENDING_REQUEST"
	KindListConnectedSites MessageKind = "LIST_CONNECTED_SITES"
	KindDisconnectSite     MessageKind = "DISCONNECT_SITE"

	// Auto-lock settings (popup)
	KindGetAutoLock    MessageKind = "GET_AUTO_LOCK"
	KindUpdateAutoLock MessageKind = "UPDATE_AUTO_LOCK"

	// Relay handshake
	KindContentScriptReady MessageKind = "CONTENT_SCRIPT_READY"
)

// Outbound push frames (background -> popup, best effort).
const (
	KindWalletLocked     MessageKind = "WALLET_LOCKED"
	KindApprovalRequired MessageKind = "APPROVAL_REQUIRED"
)

// Message is a single inbound frame from any context. ID correlates the
// reply; Origin is set by the relay for DApp-originated frames and left
// empty for first-party popup frames.
type Message struct {
	ID     string                 `json:"id,omitempty"`
	Kind   MessageKind            `json:"type"`
	Origin string                 `json:"origin,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Result is the uniform terminal reply to an inbound message.
type Result struct {
	ID      string       `json:"id,omitempty"`
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the wire shape of a failed Result. Code is only populated
// for replies crossing the DApp boundary.
type ErrorDetail struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// IsStatusCheck reports whether the message is a pure status query.
// Status checks never count as qualifying activity for the session timer.
func (k MessageKind) IsStatusCheck() bool {
	return k == KindCheckUnlockStatus || k == KindCheckWallet
}
