package services

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"presence-rewards-system/models"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"gorm.io/gorm"
)

// CredentialVerifier decides whether a credential proves that
// participant authorized the claim bound by fingerprint. It must be
// deterministic and must treat any malformed credential as a plain
// false, never as a transaction-aborting failure.
type CredentialVerifier interface {
	Verify(participant string, credential []byte, fingerprint [32]byte) bool
}

const participantAddressLen = 20

// ParseParticipant validates and decodes a 0x-prefixed 20-byte hex
// participant address into its canonical bytes.
func ParseParticipant(participant string) ([]byte, error) {
	s := strings.TrimPrefix(strings.ToLower(participant), "0x")
	if len(s) != participantAddressLen*2 {
		return nil, fmt.Errorf("participant must be a %d-byte hex address", participantAddressLen)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("participant is not valid hex: %w", err)
	}
	return raw, nil
}

// CanonicalParticipant lowercases and 0x-prefixes a participant
// address so every table keys the same spelling.
func CanonicalParticipant(participant string) (string, error) {
	raw, err := ParseParticipant(participant)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// ClaimFingerprint derives the 32-byte replay-guard digest binding an
// event, a participant and a timestamp. Encoding is fixed-width:
// big-endian uint64 event id, the 20 address bytes, big-endian uint64
// timestamp (unix seconds). Same inputs always hash the same.
func ClaimFingerprint(eventID uint64, participant string, timestamp int64) ([32]byte, error) {
	var fp [32]byte
	addr, err := ParseParticipant(participant)
	if err != nil {
		return fp, err
	}
	buf := make([]byte, 0, 8+participantAddressLen+8)
	buf = binary.BigEndian.AppendUint64(buf, eventID)
	buf = append(buf, addr...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	copy(fp[:], ethcrypto.Keccak256(buf))
	return fp, nil
}

// KeyRegistryVerifier checks a 65-byte recoverable secp256k1 signature
// over the fingerprint against the participant's registered public key
// (mirrored from the identity service into participant_keys).
type KeyRegistryVerifier struct {
	DB *gorm.DB
}

func NewKeyRegistryVerifier(db *gorm.DB) *KeyRegistryVerifier {
	return &KeyRegistryVerifier{DB: db}
}

func (v *KeyRegistryVerifier) Verify(participant string, credential []byte, fingerprint [32]byte) bool {
	if len(credential) != ethcrypto.SignatureLength {
		return false
	}

	var key models.ParticipantKey
	if err := v.DB.First(&key, "participant = ? AND revoked = ?", participant, false).Error; err != nil {
		return false
	}

	pubKey, err := ethcrypto.SigToPub(fingerprint[:], credential)
	if err != nil {
		return false
	}
	recovered := hex.EncodeToString(ethcrypto.CompressPubkey(pubKey))
	return strings.EqualFold(recovered, strings.TrimPrefix(key.PublicKey, "0x"))
}
