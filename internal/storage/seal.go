package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Sealed payloads duplicate the sensitive columns inside an encrypted
// blob. The cleartext columns stay queryable; the blob survives as the
// authoritative copy if the cleartext is ever scrubbed.

type sealedCustomerData struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

type sealedCreditData struct {
	ItemDetails   string `json:"item_details"`
	Notes         string `json:"notes"`
	OriginalPrice int64  `json:"original_price"`
}

type sealedPaymentData struct {
	Notes string `json:"notes"`
}

func (s *SQLiteStore) seal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sealed payload: %w", err)
	}
	return s.cipher.SealToString(data)
}

// openSealed decrypts a sealed blob into v. A wrong key or corrupted
// blob leaves v zero-valued instead of failing the row: the structured
// columns remain usable even when the payload is unreadable.
func (s *SQLiteStore) openSealed(encoded string, v any) {
	if encoded == "" {
		return
	}

	plaintext, err := s.cipher.OpenFromString(encoded)
	if err != nil {
		slog.Debug("failed to open sealed field, returning empty", "error", err)
		return
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		slog.Debug("failed to decode sealed field, returning empty", "error", err)
	}
}
