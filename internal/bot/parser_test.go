package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{
			name: "команда с аргументами",
			text: "!начислить @vasya 10 за доклад",
			wantCmd: "начислить", wantArgs: []string{"@vasya", "10", "за", "доклад"}, isCommand: true,
		},
		{
			name: "команда без аргументов",
			text: "!топ",
			wantCmd: "топ", isCommand: true,
		},
		{
			name: "слеш-команда",
			text: "/login секрет",
			wantCmd: "login", wantArgs: []string{"секрет"}, isCommand: true,
		},
		{
			name: "адресация боту отбрасывается",
			text: "/login@points_bot секрет",
			wantCmd: "login", wantArgs: []string{"секрет"}, isCommand: true,
		},
		{
			name: "регистр команды не важен",
			text: "!ТОП 2",
			wantCmd: "топ", wantArgs: []string{"2"}, isCommand: true,
		},
		{
			name: "пробелы по краям",
			text: "   !очки   ",
			wantCmd: "очки", isCommand: true,
		},
		{
			name: "обычный текст",
			text: "привет всем",
		},
		{
			name: "пустая строка",
			text: "",
		},
		{
			name: "одинокий префикс",
			text: "!",
		},
		{
			name: "префикс и пробелы",
			text: "!   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, isCommand := p.ParseCommand(tt.text)

			if isCommand != tt.isCommand {
				t.Fatalf("isCommand = %v, ожидалось %v", isCommand, tt.isCommand)
			}
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %q, ожидалось %q", cmd, tt.wantCmd)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, ожидалось %v", args, tt.wantArgs)
			}
			// Команда без аргументов — ровно nil, а не пустой срез
			if tt.wantArgs == nil && args != nil {
				t.Errorf("args = %#v, ожидался nil", args)
			}
		})
	}
}
