package domain

// ErrorMessage é a estrutura padronizada para falhas exibidas ao usuário.
// Os controllers a carregam no snapshot: abaixo do formulário ou como banner.
type ErrorMessage struct {
	Category string `json:"category" example:"DUPLICATE_EMAIL"`
	Message  string `json:"message" example:"Ya existe una cuenta con ese correo."`
}
