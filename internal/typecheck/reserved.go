package typecheck

import "github.com/circuitlang/midend/internal/config"

// reservedTypeNames returns every built-in type name a user record
// declaration may not collide with.
func reservedTypeNames() []string {
	all := make([]string, 0, len(config.ReservedAccountTypeNames)+len(config.ReservedAlgorithmTypeNames))
	all = append(all, config.ReservedAccountTypeNames...)
	all = append(all, config.ReservedAlgorithmTypeNames...)
	return all
}
