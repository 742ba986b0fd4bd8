// Package infra contém implementações concretas para os contratos do pacote
// domain.
//
// Exemplos:
//   - MemoryStore: TallyStore em memória (RWMutex + map)
//   - LimiterStore: token bucket por cliente (golang.org/x/time/rate) com
//     expiração por inatividade (go-cache)
//   - SlotBudget: vagas simultâneas por classe (leitura/escrita) com
//     golang.org/x/sync/semaphore
//   - MemoryStatsStore / RedisStatsStore: estatísticas best-effort
package infra
