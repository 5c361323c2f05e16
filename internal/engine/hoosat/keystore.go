package hoosat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Keystore seals private keys under a passphrase: scrypt KDF, AES-256-GCM.
// The sealed blob is base64(salt || nonce || ciphertext).
type Keystore struct {
	network string
}

// NewKeystore creates a keystore for the given network.
func NewKeystore(network string) *Keystore {
	return &Keystore{network: network}
}

const (
	saltLen  = 16
	scryptN  = 32768
	scryptR  = 8
	scryptP  = 1
	keyLen   = 32
	hexKeyRe = "^[0-9a-fA-F]{64}$"
)

var privateKeyPattern = regexp.MustCompile(hexKeyRe)

// addrEncoding is lowercase base32 without padding, giving addresses the
// hoosat:<payload> shape.
var addrEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateKey creates a fresh key pair.
func (k *Keystore) GenerateKey() (string, string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", "", types.NewError(types.FaultEngine, "key generation failed: %v", err)
	}
	privateKeyHex := hex.EncodeToString(seed)
	address, err := k.DeriveAddress(privateKeyHex)
	if err != nil {
		return "", "", err
	}
	return address, privateKeyHex, nil
}

// DeriveAddress computes the address for a private key. The key must be a
// 64-character hex string.
func (k *Keystore) DeriveAddress(privateKeyHex string) (string, error) {
	if !privateKeyPattern.MatchString(privateKeyHex) {
		return "", types.NewError(types.FaultValidation, "invalid private key format, must be 64-character hex string")
	}
	seed, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", types.NewError(types.FaultValidation, "invalid private key: %v", err)
	}
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	payload := strings.ToLower(addrEncoding.EncodeToString(pub))
	return k.addressPrefix() + payload, nil
}

func (k *Keystore) addressPrefix() string {
	if k.network == "testnet" {
		return "hoosattest:"
	}
	return "hoosat:"
}

// EncryptKey seals a private key under a passphrase.
func (k *Keystore) EncryptKey(privateKeyHex, passphrase string) (string, error) {
	if privateKeyHex == "" || passphrase == "" {
		return "", types.NewError(types.FaultValidation, "private key and password are required")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", types.NewError(types.FaultEngine, "failed to generate salt: %v", err)
	}

	gcm, err := k.cipherFor(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", types.NewError(types.FaultEngine, "failed to generate nonce: %v", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(privateKeyHex), nil)
	blob := append(append(salt, nonce...), sealed...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptKey opens a sealed key. A wrong passphrase fails authentication
// and surfaces as invalid credentials.
func (k *Keystore) DecryptKey(encrypted, passphrase string) (string, error) {
	if encrypted == "" || passphrase == "" {
		return "", types.NewError(types.FaultValidation, "encrypted key and password are required")
	}

	blob, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil || len(blob) < saltLen {
		return "", types.NewError(types.FaultInvalidCredentials, "invalid password")
	}
	salt, rest := blob[:saltLen], blob[saltLen:]

	gcm, err := k.cipherFor(passphrase, salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", types.NewError(types.FaultInvalidCredentials, "invalid password")
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", types.NewError(types.FaultInvalidCredentials, "invalid password")
	}
	return string(plain), nil
}

func (k *Keystore) cipherFor(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, types.NewError(types.FaultEngine, "key derivation failed: %v", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.NewError(types.FaultEngine, "cipher init failed: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.NewError(types.FaultEngine, "cipher init failed: %v", err)
	}
	return gcm, nil
}
