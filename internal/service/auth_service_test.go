package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/dto"
	"refrigas/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdP struct {
	identidades map[string]*dto.Identidad
}

func (f *fakeIdP) AuthCodeURL(state string) string { return "https://idp.test/authorize?state=" + state }
func (f *fakeIdP) LogoutURL() string               { return "https://idp.test/v2/logout" }

func (f *fakeIdP) Exchange(_ context.Context, code string) (*dto.Identidad, error) {
	id, ok := f.identidades[code]
	if !ok {
		return nil, errors.New("invalid_grant")
	}
	return id, nil
}

type memSesiones struct {
	mu  sync.Mutex
	ids map[string]string
}

func newMemSesiones() *memSesiones { return &memSesiones{ids: map[string]string{}} }

func (m *memSesiones) Guardar(_ context.Context, sid, usuarioID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[sid] = usuarioID
	return nil
}

func (m *memSesiones) Existe(_ context.Context, sid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[sid]
	return ok, nil
}

func (m *memSesiones) Revocar(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, sid)
	return nil
}

func newAuthEnv(t *testing.T) (*testEnv, AuthService, *memSesiones) {
	t.Helper()
	env := newTestEnv(t, mediodia(2024, 5, 1))
	idp := &fakeIdP{identidades: map[string]*dto.Identidad{
		"code-admin":  {Subject: "auth0|1", Email: "admin@refrigas.com", Nombre: "Admin"},
		"code-extra":  {Subject: "auth0|2", Email: "intruso@example.com"},
		"code-cajero": {Subject: "auth0|3", Email: "caja@refrigas.com", Nombre: "Caja"},
	}}
	sesiones := newMemSesiones()
	svc := NewAuthService(idp, sesiones, env.usuarios, "test-secret", time.Hour, env.clock)
	return env, svc, sesiones
}

func TestAuth_CallbackYValidar(t *testing.T) {
	env, svc, _ := newAuthEnv(t)
	ctx := context.Background()
	env.crearUsuario(t, "admin@refrigas.com", model.RolAdministrador, true)

	url, state := svc.LoginURL()
	assert.NotEmpty(t, state)
	assert.Contains(t, url, state)

	sesion, err := svc.Callback(ctx, "code-admin")
	require.NoError(t, err)
	assert.Equal(t, model.RolAdministrador, sesion.Datos.Rol)
	assert.Equal(t, "admin@refrigas.com", sesion.Datos.Email)

	claims, err := svc.Validar(ctx, sesion.Token)
	require.NoError(t, err)
	assert.Equal(t, sesion.Datos.UsuarioID, claims.UsuarioID)
	assert.Equal(t, model.RolAdministrador, claims.Rol)
}

func TestAuth_CallbackRechazaNoAutorizados(t *testing.T) {
	env, svc, _ := newAuthEnv(t)
	ctx := context.Background()
	env.crearUsuario(t, "caja@refrigas.com", model.RolCajero, false)

	_, err := svc.Callback(ctx, "code-extra")
	requireKind(t, err, apierror.KindForbidden)

	_, err = svc.Callback(ctx, "code-cajero")
	requireKind(t, err, apierror.KindForbidden)

	_, err = svc.Callback(ctx, "code-desconocido")
	requireKind(t, err, apierror.KindTransport)

	_, err = svc.Callback(ctx, "")
	requireKind(t, err, apierror.KindValidation)
}

func TestAuth_LogoutRevocaLaSesion(t *testing.T) {
	env, svc, sesiones := newAuthEnv(t)
	ctx := context.Background()
	env.crearUsuario(t, "admin@refrigas.com", model.RolAdministrador, true)

	sesion, err := svc.Callback(ctx, "code-admin")
	require.NoError(t, err)
	require.Len(t, sesiones.ids, 1)

	assert.Equal(t, "https://idp.test/v2/logout", svc.Logout(ctx, sesion.Token))
	assert.Empty(t, sesiones.ids)

	_, err = svc.Validar(ctx, sesion.Token)
	requireKind(t, err, apierror.KindUnauthorized)
}

func TestAuth_ValidarUsuarioDesactivado(t *testing.T) {
	env, svc, _ := newAuthEnv(t)
	ctx := context.Background()
	env.crearUsuario(t, "admin@refrigas.com", model.RolAdministrador, true)

	sesion, err := svc.Callback(ctx, "code-admin")
	require.NoError(t, err)

	usuarios := NewUsuarioService(env.usuarios)
	require.NoError(t, usuarios.Desactivar(ctx, uuid.MustParse(sesion.Datos.UsuarioID)))

	_, err = svc.Validar(ctx, sesion.Token)
	requireKind(t, err, apierror.KindUnauthorized)
}

func TestAuth_ValidarTokenAjeno(t *testing.T) {
	env, svc, sesiones := newAuthEnv(t)
	ctx := context.Background()
	env.crearUsuario(t, "admin@refrigas.com", model.RolAdministrador, true)

	_, err := svc.Validar(ctx, "no.es.un.jwt")
	requireKind(t, err, apierror.KindUnauthorized)

	// Same store and users, different signing secret.
	otro := NewAuthService(&fakeIdP{identidades: map[string]*dto.Identidad{
		"code-admin": {Subject: "auth0|1", Email: "admin@refrigas.com"},
	}}, sesiones, env.usuarios, "otro-secreto", time.Hour, env.clock)
	sesion, err := otro.Callback(ctx, "code-admin")
	require.NoError(t, err)

	_, err = svc.Validar(ctx, sesion.Token)
	requireKind(t, err, apierror.KindUnauthorized)
}

func TestUsuarioService(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()
	svc := NewUsuarioService(env.usuarios)

	u, err := svc.Crear(ctx, dto.CrearUsuarioRequest{Email: " Nuevo@Refrigas.com ", Nombre: "Nuevo", Rol: model.RolCajero})
	require.NoError(t, err)
	assert.Equal(t, "nuevo@refrigas.com", u.Email)
	assert.True(t, u.Activo)

	_, err = svc.Crear(ctx, dto.CrearUsuarioRequest{Email: "nuevo@refrigas.com", Rol: model.RolCajero})
	requireKind(t, err, apierror.KindConflict)

	id := uuid.MustParse(u.ID)
	nombre := "Renombrado"
	act, err := svc.Actualizar(ctx, id, dto.ActualizarUsuarioRequest{Nombre: &nombre, Rol: model.RolAdministrador})
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", act.Nombre)
	assert.Equal(t, model.RolAdministrador, act.Rol)

	require.NoError(t, svc.Desactivar(ctx, id))
	activos, err := svc.Listar(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, activos)
	todos, err := svc.Listar(ctx, true)
	require.NoError(t, err)
	assert.Len(t, todos, 1)

	require.NoError(t, svc.Reactivar(ctx, id))
	requireKind(t, svc.Reactivar(ctx, uuid.New()), apierror.KindNotFound)
}
