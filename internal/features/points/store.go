// Package points — store.go определяет контракт хранилища реестра.
package points

import "context"

// Store — долговременное хранилище записей реестра: userID → Record.
//
// Контракт:
//   - Get возвращает (nil, nil), если записи нет — отсутствие не ошибка.
//   - Put атомарен по одному ключу: параллельный Get никогда не увидит
//     наполовину записанную запись. Put — единственная точка фиксации.
//   - Delete сообщает, существовала ли запись; удаление отсутствующей
//     записи — не ошибка.
//   - ListAll возвращает записи в порядке первого появления userID
//     (стабилен между вызовами, пока запись не удалят и не создадут заново).
//
// Ошибки ввода-вывода всех методов оборачивают common.ErrStorageUnavailable.
type Store interface {
	Get(ctx context.Context, userID int64) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, userID int64) (bool, error)
	ListAll(ctx context.Context) ([]*Record, error)
}
