// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки реестра очков
var (
	// ErrStorageUnavailable — хранилище недоступно (упала БД, сетевая ошибка).
	// Операция прервана, частичное состояние не сохранено.
	ErrStorageUnavailable = errors.New("хранилище очков недоступно")
	// ErrEmptyReason — причина начисления обязательна
	ErrEmptyReason = errors.New("причина начисления не может быть пустой")
	// ErrInvalidAmount — количество очков не является целым числом
	ErrInvalidAmount = errors.New("количество очков должно быть целым числом")
)

// Ошибки импорта
var (
	// ErrUserUnresolved — ссылка на пользователя из строки импорта не распознана
	ErrUserUnresolved = errors.New("пользователь не найден")
	// ErrMalformedRow — строка не соответствует формату "пользователь,очки"
	ErrMalformedRow = errors.New("некорректная строка импорта")
	// ErrTooManyRows — файл импорта больше допустимого размера
	ErrTooManyRows = errors.New("слишком много строк в файле импорта")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrNoSession — нет активной сессии, нужно войти через /login
	ErrNoSession = errors.New("нет активной сессии, войдите через /login в личке")
)

// Ошибки ролей
var (
	// ErrRoleTooLong — роль длиннее 64 символов
	ErrRoleTooLong = errors.New("роль слишком длинная (максимум 64 символа)")
	// ErrRoleOptionNotFound — вариант роли удалён из настроек
	ErrRoleOptionNotFound = errors.New("такого варианта роли больше нет")
)
