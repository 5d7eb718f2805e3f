package util

import (
	"github.com/SeakMengs/CertEditor/internal/constant"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

func GenerateNChar(n int) (string, error) {
	id, err := gonanoid.New(n)
	if err != nil {
		return "", err
	}
	return id, nil
}

// NewSessionID returns the url safe id used to address an open editor.
func NewSessionID() (string, error) {
	return GenerateNChar(constant.SESSION_ID_LENGTH)
}
