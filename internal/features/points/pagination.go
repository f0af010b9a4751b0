// Package points — pagination.go нарезает снимок реестра на страницы.
// Чистая функция без состояния: вся логика отображения страниц
// команды !топ живёт здесь, а не в обработчике.
package points

import "sort"

// Paginate возвращает страницу записей из снимка GetAllPoints.
//
// Записи сортируются по user ID по возрастанию — порядок детерминирован:
// два вызова на одном снимке дают одинаковые страницы.
//
// Страницы нумеруются с единицы; page < 1 считается первой страницей.
// Страница за концом коллекции — пустой срез, не ошибка.
// totalPages — округление вверх; для пустого реестра отображается
// как одна пустая страница.
func Paginate(all map[int64]*Record, page, pageSize int) (items []*Record, totalPages, total int) {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total = len(ids)
	totalPages = (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	// Страница за концом (включая переполнение page*pageSize) — пустой срез
	if page > totalPages {
		return []*Record{}, totalPages, total
	}

	offset := (page - 1) * pageSize
	if offset >= total {
		return []*Record{}, totalPages, total
	}

	end := offset + pageSize
	if end > total {
		end = total
	}

	items = make([]*Record, 0, end-offset)
	for _, id := range ids[offset:end] {
		items = append(items, all[id])
	}
	return items, totalPages, total
}
