package i18n

import "golang.org/x/text/language"

var messages = map[language.Tag]map[string]string{
	language.English: {
		"message.success": "Operation completed successfully",

		"language.en": "English",
		"language.uk": "Ukrainian",

		"menu.appliances":    "Appliances",
		"menu.employees":     "Employees",
		"menu.clients":       "Clients",
		"menu.orders":        "Orders",
		"menu.manufacturers": "Manufacturers",
		"menu.logout":        "Logout",

		"button.add":     "Add",
		"button.edit":    "Edit",
		"button.delete":  "Delete",
		"button.save":    "Save",
		"button.cancel":  "Cancel",
		"button.approve": "Approve",
		"button.search":  "Search",
		"button.back":    "Back",

		"appliance.name":           "Name",
		"appliance.category":       "Category",
		"appliance.model":          "Model",
		"appliance.manufacturer":   "Manufacturer",
		"appliance.powerType":      "Power type",
		"appliance.characteristic": "Characteristic",
		"appliance.description":    "Description",
		"appliance.power":          "Power",
		"appliance.price":          "Price",

		"order.id":       "Order ID",
		"order.client":   "Client",
		"order.employee": "Employee",
		"order.approved": "Approved",
		"order.items":    "Items",
		"order.total":    "Total",
	},
	language.Ukrainian: {
		"message.success": "Операцію виконано успішно",

		"language.en": "Англійська",
		"language.uk": "Українська",

		"menu.appliances":    "Техніка",
		"menu.employees":     "Працівники",
		"menu.clients":       "Клієнти",
		"menu.orders":        "Замовлення",
		"menu.manufacturers": "Виробники",
		"menu.logout":        "Вийти",

		"button.add":     "Додати",
		"button.edit":    "Редагувати",
		"button.delete":  "Видалити",
		"button.save":    "Зберегти",
		"button.cancel":  "Скасувати",
		"button.approve": "Підтвердити",
		"button.search":  "Пошук",
		"button.back":    "Назад",

		"appliance.name":           "Назва",
		"appliance.category":       "Категорія",
		"appliance.model":          "Модель",
		"appliance.manufacturer":   "Виробник",
		"appliance.powerType":      "Тип живлення",
		"appliance.characteristic": "Характеристика",
		"appliance.description":    "Опис",
		"appliance.power":          "Потужність",
		"appliance.price":          "Ціна",

		"order.id":       "Номер замовлення",
		"order.client":   "Клієнт",
		"order.employee": "Працівник",
		"order.approved": "Підтверджено",
		"order.items":    "Позиції",
		"order.total":    "Сума",
	},
}
