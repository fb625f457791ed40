package client

import "errors"

var (
	// ErrUnreachable сервер недоступен или сетевой сбой
	ErrUnreachable = errors.New("remote unreachable")
	// ErrAuthExpired учетные данные отклонены сервером, нужен повторный вход
	ErrAuthExpired = errors.New("credential expired")
	// ErrNoCredential токен не задан
	ErrNoCredential = errors.New("no credential")
	// ErrNotReady локальное хранилище еще не инициализировано
	ErrNotReady = errors.New("local store not ready")
	// ErrConcurrentWipe сброс для этого пользователя уже выполняется
	ErrConcurrentWipe = errors.New("wipe already in progress")
	// ErrSyncSuppressed после сброса синхронизация заблокирована до подтверждения
	ErrSyncSuppressed = errors.New("sync suppressed after reset")
	// ErrRemote прочие ответы сервера с ошибкой
	ErrRemote = errors.New("remote error")
)
