// Package bot — parser.go разбирает текст сообщения на команду и аргументы.
// Команды начинаются с "!" (чатовые) или "/" (системные, вроде /login).
package bot

import "strings"

// CommandParser разбирает команды из текста сообщений.
type CommandParser struct{}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// ParseCommand разбирает текст на команду и аргументы.
// "!начислить @vasya 10 за доклад" → ("начислить", ["@vasya", "10", "за", "доклад"], true).
// Суффикс "@имябота" после команды отбрасывается ("/login@points_bot").
// Обычный текст — не команда: isCommand == false.
func (p *CommandParser) ParseCommand(text string) (cmd string, args []string, isCommand bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '!' && text[0] != '/') {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}

	cmd = strings.ToLower(fields[0])
	// Убираем адресацию боту: /login@points_bot → login
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd == "" {
		return "", nil, false
	}

	if len(fields) > 1 {
		args = fields[1:]
	}
	return cmd, args, true
}
