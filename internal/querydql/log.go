package querydql

import "go.uber.org/zap"

func zapClause(cx *clauseContext) zap.Field { return zap.String("clause", cx.clause.String()) }
func zapPath(path string) zap.Field         { return zap.String("path", path) }
func zapReason(reason string) zap.Field     { return zap.String("reason", reason) }
