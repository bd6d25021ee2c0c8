package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponse_MapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{Validation("monto invalido"), http.StatusUnprocessableEntity, "monto invalido"},
		{Conflict("ya cerrada"), http.StatusConflict, "ya cerrada"},
		{NotFound("no existe"), http.StatusNotFound, "no existe"},
		{Transport("smtp caido", errors.New("dial tcp: refused")), http.StatusBadGateway, "smtp caido"},
		{Unauthorized("sin sesion"), http.StatusUnauthorized, "sin sesion"},
		{Forbidden("sin permiso"), http.StatusForbidden, "sin permiso"},
	}
	for _, tc := range cases {
		status, body := Response(tc.err)
		assert.Equal(t, tc.status, status, tc.detail)
		assert.Equal(t, tc.detail, body.Detail)
	}
}

func TestResponse_WrappedDomainError(t *testing.T) {
	err := fmt.Errorf("registrar abono: %w", Conflict("La deuda ya está pagada"))
	status, body := Response(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "La deuda ya está pagada", body.Detail)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestResponse_UnknownErrorNeverLeaks(t *testing.T) {
	status, body := Response(errors.New("pq: relation \"deudas\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error interno del servidor", body.Detail)
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
}

func TestTransport_KeepsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := Transport("no se pudo enviar", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "timeout")
}
