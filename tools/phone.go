package tools

import "strings"

// PhoneFromRemoteJid extrai o telefone de um remoteJid do Gateway
// (ex: "5511999999999@s.whatsapp.net" -> "5511999999999").
//
// Remove o sufixo de domínio e um eventual sufixo de device (":12").
func PhoneFromRemoteJid(remoteJid string) string {
	jid := strings.TrimSpace(remoteJid)
	if i := strings.Index(jid, "@"); i >= 0 {
		jid = jid[:i]
	}
	if i := strings.Index(jid, ":"); i >= 0 {
		jid = jid[:i]
	}
	return strings.TrimSpace(jid)
}

// IsGroupJid indica se o remoteJid é de um grupo.
func IsGroupJid(remoteJid string) bool {
	return strings.HasSuffix(strings.TrimSpace(remoteJid), "@g.us")
}
