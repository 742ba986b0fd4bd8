// Package application contém os casos de uso do serviço de contagem.
//
// TallyService valida a entrada (Identifier e contagem), aplica no store e
// registra estatísticas; Admission decide se uma requisição entra (rate limit
// e limite de concorrência). Nenhum dos dois conhece net/http.
package application
