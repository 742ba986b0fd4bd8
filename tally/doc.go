// Package tally fornece o adapter HTTP (net/http) do serviço de contagem.
//
// Visão geral (camadas):
//
//   - domain: Identifier, contrato do TallyStore, erros e contratos de admissão
//   - application: casos de uso (submit/snapshot/lookup/reset, allow/deny)
//   - infra: MemoryStore, token bucket por cliente, semáforo, estatísticas
//   - tally (este pacote): rotas, JSON de entrada/saída, middlewares e
//     tradução de erros para status HTTP
//
// Rotas:
//
//	POST /grue             {"grue_id": 1, "number_of_merchandise": 3}
//	GET  /vehicle          {"vehicle_data": {"zone1": 3, "zone2": 0, ...}}
//	GET  /grue/{grue_id}   {"grue_id": "zone1", "number_of_merchandise": 3}
//	POST /reset            corpo opcional {"uuid": "..."}
//	GET  /health, /version, /stats
package tally
