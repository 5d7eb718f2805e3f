package util

func GetAppName() string {
	return "CertEditor"
}
