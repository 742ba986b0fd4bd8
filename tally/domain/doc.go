// Package domain define os tipos e contratos do serviço de contagem (tally).
//
// Aqui ficam o Identifier (zona/time validado por faixa), o contrato do
// TallyStore, os erros do domínio e os contratos de admissão (rate limit e
// concorrência) usados pela camada HTTP.
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
