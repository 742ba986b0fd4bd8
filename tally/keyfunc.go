package tally

import (
	"net/http"
	"net/netip"
	"strings"

	"tally-service/tally/domain"
)

// KeyFunc diz de quem é a requisição para o rate limit.
type KeyFunc func(r *http.Request) domain.ClientKey

// ClientKeyFunc monta a chave do cliente, na ordem:
//   - "key:<valor>" do header keyHeader, se configurado e presente;
//   - "ip:<addr>" do primeiro endereço válido do X-Forwarded-For, se trustXFF;
//   - "ip:<addr>" do RemoteAddr.
//
// Os prefixos separam chaves de header e de IP. Endereços passam por netip:
// IPv4 mapeado em IPv6 vira IPv4 e a zona é descartada.
func ClientKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.ClientKey {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientKey("key:" + v)
			}
		}
		if trustXFF {
			for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
				if addr, err := netip.ParseAddr(strings.TrimSpace(hop)); err == nil {
					return ipKey(addr)
				}
			}
		}
		return remoteKey(r.RemoteAddr)
	}
}

func remoteKey(remoteAddr string) domain.ClientKey {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ipKey(ap.Addr())
	}
	if addr, err := netip.ParseAddr(remoteAddr); err == nil {
		return ipKey(addr)
	}
	return "ip:unknown"
}

func ipKey(addr netip.Addr) domain.ClientKey {
	return domain.ClientKey("ip:" + addr.Unmap().WithZone("").String())
}
