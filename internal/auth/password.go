package auth

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// ErrWeakParams indica parâmetros argon2id abaixo do mínimo aceito.
var ErrWeakParams = errors.New("auth: parâmetros argon2id insuficientes")

// PasswordParams controla o custo do argon2id usado por `ishare hashpass`.
type PasswordParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// PasswordHasher gera hashes com custo configurado. A verificação lê os
// parâmetros do próprio hash, então trocar o custo não invalida senhas antigas.
type PasswordHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher valida o custo (mínimo de 8 MiB e 1 passada).
func NewPasswordHasher(p PasswordParams) (*PasswordHasher, error) {
	if p.MemoryKiB < 8*1024 || p.Iterations < 1 || p.Parallelism < 1 {
		return nil, fmt.Errorf("%w: memória=%dKiB passadas=%d threads=%d", ErrWeakParams, p.MemoryKiB, p.Iterations, p.Parallelism)
	}
	return &PasswordHasher{params: &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	}}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

// Outdated indica hash gerado com custo menor que o configurado.
func (h *PasswordHasher) Outdated(encodedHash string) (bool, error) {
	params, _, _, err := argon2id.DecodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	return params.Memory < h.params.Memory || params.Iterations < h.params.Iterations, nil
}

// Verify compara a senha com o hash (ADMIN_PASSWORD_HASH / OPERATOR_PASSWORD_HASH).
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
