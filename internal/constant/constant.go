package constant

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

// Image types accepted for signature uploads.
var ALLOWED_SIGNATURE_FILE_TYPE = []string{".png", ".jpg", ".jpeg", ".webp"}

// 5 MB
const MAX_SIGNATURE_FILE_SIZE = 5 << 20

const SESSION_ID_LENGTH = 21
