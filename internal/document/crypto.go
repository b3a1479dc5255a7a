package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// IsEncrypted checks if a PDF file is password-protected.
func IsEncrypted(filename string) (bool, error) {
	// Page counting fails on encrypted files without the password.
	_, err := api.PageCountFile(filename)
	if err == nil {
		return false, nil
	}
	if isEncryptionError(err) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
}

// isEncryptionError reports whether pdfcpu rejected the file for lack of a
// valid password. Filesystem errors never qualify.
func isEncryptionError(err error) bool {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return false
	}
	return errors.Is(err, pdfcpu.ErrWrongPassword)
}

// Decrypt writes a decrypted copy of filename to a temporary file and
// returns its path. The password is tried as both user and owner password.
// The caller removes the file.
func Decrypt(filename, password string) (string, error) {
	tempFile, err := os.CreateTemp("", "lexocr-decrypted-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tempFile.Close()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	if err := api.DecryptFile(filename, tempFile.Name(), conf); err != nil {
		_ = os.Remove(tempFile.Name())
		if isEncryptionError(err) {
			return "", fmt.Errorf("%w: wrong password for %s", ErrEncrypted, filename)
		}
		return "", fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return tempFile.Name(), nil
}
