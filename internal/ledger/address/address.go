// Package address deriva chaves estáveis de registros a partir de (namespace, seeds).
// Qualquer chamador recompõe a chave de um registro sem índice auxiliar.
package address

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/decred/base58"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Key é a chave determinística de um registro (sha256 codificado em base58).
type Key string

func (k Key) String() string { return string(k) }

// Namespaces usados pelo ledger.
const (
	NamespacePlatform = "platform_config"
	NamespaceMatch    = "match"
	NamespaceBet      = "bet"
	NamespaceUser     = "user"
	NamespaceToken    = "token"
	NamespaceEscrow   = "escrow"
	NamespaceMint     = "mint"
	NamespaceCounter  = "counter"
)

// MaxSeedLength limita o tamanho de cada seed de endereço derivado.
const MaxSeedLength = 64

var (
	ErrEmptyNamespace = errors.New("address: empty namespace")
	ErrSeedTooLong    = errors.New("address: seed too long")
)

var derivationSeed = []byte("sports-bet-ledger record seed")

var cache *lru.Cache[string, Key]

func init() {
	cache, _ = lru.New[string, Key](10240)
}

// Derive calcula a chave de (namespace, seeds...). Cada parte entra com prefixo de
// tamanho, então ("ab","c") e ("a","bc") nunca colidem.
func Derive(namespace string, seeds ...string) (Key, error) {
	if namespace == "" {
		return "", ErrEmptyNamespace
	}
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return "", fmt.Errorf("%w: %d bytes (max %d)", ErrSeedTooLong, len(s), MaxSeedLength)
		}
	}

	cacheKey := fmt.Sprintf("%s%q", namespace, seeds)
	if k, ok := cache.Get(cacheKey); ok {
		return k, nil
	}

	h := sha256.New()
	h.Write(derivationSeed)
	writePart(h, namespace)
	for _, s := range seeds {
		writePart(h, s)
	}
	k := Key(base58.Encode(h.Sum(nil)))
	cache.Add(cacheKey, k)
	return k, nil
}

// MustDerive é Derive para seeds conhecidas em tempo de compilação.
func MustDerive(namespace string, seeds ...string) Key {
	k, err := Derive(namespace, seeds...)
	if err != nil {
		panic(err)
	}
	return k
}

func writePart(h io.Writer, part string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(part)))
	h.Write(n[:])
	h.Write([]byte(part))
}

// Valid informa se s tem o formato de uma chave derivada.
func Valid(s string) bool {
	return len(base58.Decode(s)) == sha256.Size
}

func PlatformKey() Key { return MustDerive(NamespacePlatform) }
func MintKey() Key     { return MustDerive(NamespaceMint) }

func MatchKey(matchID string) (Key, error)  { return Derive(NamespaceMatch, matchID) }
func EscrowKey(matchID string) (Key, error) { return Derive(NamespaceEscrow, matchID) }
func UserKey(owner string) (Key, error)     { return Derive(NamespaceUser, owner) }
func TokenKey(owner string) (Key, error)    { return Derive(NamespaceToken, owner) }

func BetKey(bettor, matchID string) (Key, error) {
	return Derive(NamespaceBet, bettor, matchID)
}

func CounterKey(owner, name string) (Key, error) {
	return Derive(NamespaceCounter, owner, name)
}
