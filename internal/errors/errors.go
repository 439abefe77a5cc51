package errors

import (
	stderrors "errors"
	"fmt"

	"finalfeliz/internal/domain"
)

// AppError é a interface central para todos os erros customizados do Final Feliz.
// Ela permite que os controllers acessem a Categoria e a Mensagem do erro
// sem conhecer o tipo concreto.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "DUPLICATE_EMAIL", "NOT_FOUND")
	Kind() Kind       // Tipo do erro na taxonomia do domínio
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Kind identifica o tipo de falha, independente da mensagem.
type Kind int

const (
	KindUnknown Kind = iota
	KindDuplicateEmail
	KindNotFound
	KindInvalidCredentials
	KindValidation
	KindForbidden
	KindStorage
	KindRateLimited
)

// --- Tipos de Erro de Domínio ---

// DuplicateEmailError indica registro (ou edição) com um email já usado por outro usuário.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("O email '%s' já está em uso.", e.Email)
}
func (e *DuplicateEmailError) Category() string { return "DUPLICATE_EMAIL" }
func (e *DuplicateEmailError) Kind() Kind       { return KindDuplicateEmail }
func (e *DuplicateEmailError) Unwrap() error    { return nil }

// NewDuplicateEmailError cria um novo erro de email duplicado.
func NewDuplicateEmailError(email string) AppError {
	return &DuplicateEmailError{Email: email}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) Kind() Kind       { return KindNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InvalidCredentialsError indica senha incorreta no login.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string    { return "Credenciais inválidas." }
func (e *InvalidCredentialsError) Category() string { return "INVALID_CREDENTIALS" }
func (e *InvalidCredentialsError) Kind() Kind       { return KindInvalidCredentials }
func (e *InvalidCredentialsError) Unwrap() error    { return nil }

// NewInvalidCredentialsError cria um novo erro de credenciais inválidas.
func NewInvalidCredentialsError() AppError {
	return &InvalidCredentialsError{}
}

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) Kind() Kind       { return KindValidation }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// ForbiddenError é retornado quando uma operação de administrador é pedida
// por uma sessão sem privilégio.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) Kind() Kind       { return KindForbidden }
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de acesso negado.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// RateLimitError indica tentativas demais numa janela.
type RateLimitError struct {
	Msg string
}

func (e *RateLimitError) Error() string    { return fmt.Sprintf("Limite de tentativas: %s", e.Msg) }
func (e *RateLimitError) Category() string { return "RATE_LIMITED" }
func (e *RateLimitError) Kind() Kind       { return KindRateLimited }
func (e *RateLimitError) Unwrap() error    { return nil }

// NewRateLimitError cria um novo erro de limite de tentativas.
func NewRateLimitError(msg string) AppError {
	return &RateLimitError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// StorageError representa qualquer falha do armazenamento (DB, cache).
type StorageError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Erro de Armazenamento: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("Erro de Armazenamento: %s", e.Msg)
}
func (e *StorageError) Category() string { return "STORAGE_ERROR" }
func (e *StorageError) Kind() Kind       { return KindStorage }
func (e *StorageError) Unwrap() error    { return e.Err }

// NewStorageError encapsula um erro do driver.
func NewStorageError(msg string, err error) AppError {
	return &StorageError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um StorageError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewStorageError(msg+" (DB)", err)
}

// AsStorage mantém AppErrors como estão e encapsula qualquer outro erro
// num StorageError.
func AsStorage(msg string, err error) error {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return NewStorageError(msg, err)
}

// --- Helpers para os Controllers (Tradução Final) ---

// KindOf devolve o Kind do primeiro AppError na cadeia de err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindUnknown
}

// Is informa se err (ou algum erro encapsulado) é do tipo k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// genericStorageMessage é o que o usuário vê para falhas não tipadas ou de armazenamento.
const genericStorageMessage = "Ocurrió un error inesperado. Inténtalo de nuevo."

// UserMessage traduz um erro na mensagem exibida abaixo do formulário ou no banner.
func UserMessage(err error) domain.ErrorMessage {
	var appErr AppError
	if !stderrors.As(err, &appErr) {
		// Erro não tipado: tratado como falha genérica de armazenamento.
		return domain.ErrorMessage{Category: "STORAGE_ERROR", Message: genericStorageMessage}
	}

	switch appErr.Kind() {
	case KindDuplicateEmail:
		return domain.ErrorMessage{Category: appErr.Category(), Message: "Ya existe una cuenta con ese correo."}
	case KindInvalidCredentials:
		return domain.ErrorMessage{Category: appErr.Category(), Message: "Contraseña incorrecta."}
	case KindStorage:
		return domain.ErrorMessage{Category: appErr.Category(), Message: genericStorageMessage}
	}

	// Os demais tipos já carregam a mensagem final.
	switch e := appErr.(type) {
	case *NotFoundError:
		return domain.ErrorMessage{Category: e.Category(), Message: e.Msg}
	case *ValidationError:
		return domain.ErrorMessage{Category: e.Category(), Message: e.Msg}
	case *ForbiddenError:
		return domain.ErrorMessage{Category: e.Category(), Message: e.Msg}
	case *RateLimitError:
		return domain.ErrorMessage{Category: e.Category(), Message: e.Msg}
	default:
		return domain.ErrorMessage{Category: appErr.Category(), Message: appErr.Error()}
	}
}
