package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(ErrInvalidInput, "Apenas PDFs são permitidos."), http.StatusBadRequest},
		{New(ErrUnprocessable, "vazio"), http.StatusBadRequest},
		{New(ErrInvalidState, "resetada"), http.StatusBadRequest},
		{New(ErrNotFound, "nada"), http.StatusNotFound},
		{New(ErrUnauthorized, "credenciais"), http.StatusUnauthorized},
		{New(ErrForbidden, "dono"), http.StatusForbidden},
		{New(ErrRateLimited, "devagar"), http.StatusTooManyRequests},
		{Internal("Erro ao processar", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", New(ErrNotFound, "x")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrInternal, "Erro ao carregar base de dados", cause)

	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Erro ao carregar base de dados", Message(err))
	assert.Equal(t, "Erro ao carregar base de dados: connection refused", err.Error())
}

func TestInternalAppendsCause(t *testing.T) {
	err := Internal("Erro ao processar", errors.New("boom"))
	assert.Equal(t, "Erro ao processar: boom", Message(err))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestInternalErrorDoesNotRepeatCause(t *testing.T) {
	err := Internal("Erro ao processar", errors.New("boom"))
	assert.Equal(t, "Erro ao processar: boom", err.Error())
}
