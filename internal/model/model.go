package model

// All lists every persisted model in dependency order. Production schema is
// owned by the SQL migrations; this list feeds AutoMigrate in tests.
func All() []any {
	return []any{
		&UsuarioAutorizado{},
		&Cliente{},
		&Deuda{},
		&Abono{},
		&Transaccion{},
		&CierreCaja{},
		&Notificacion{},
	}
}
