package game

import "github.com/annel0/brawl-replay/internal/identity"

// HUDSlots количество слотов HUD
const HUDSlots = 3

// HUD три слота для отображения бойцов. Слоты нумеруются с 1.
type HUD struct {
	slots [HUDSlots]identity.ID
	// OnSlotChanged вызывается при изменении слота; id == None при очистке
	OnSlotChanged func(slot int, id identity.ID)
}

// NewHUD создаёт пустой HUD
func NewHUD() *HUD {
	return &HUD{}
}

// AssignNext занимает первый свободный слот; 0 если свободных нет
func (h *HUD) AssignNext(id identity.ID) int {
	for i, cur := range h.slots {
		if cur == identity.None {
			h.set(i+1, id)
			return i + 1
		}
	}
	return 0
}

// ClearSlot освобождает слот; неверный номер игнорируется
func (h *HUD) ClearSlot(slot int) {
	if slot < 1 || slot > HUDSlots {
		return
	}
	h.set(slot, identity.None)
}

// Remove освобождает слот, занятый id
func (h *HUD) Remove(id identity.ID) bool {
	if slot := h.SlotOf(id); slot != 0 {
		h.ClearSlot(slot)
		return true
	}
	return false
}

// Slot содержимое слота
func (h *HUD) Slot(slot int) identity.ID {
	if slot < 1 || slot > HUDSlots {
		return identity.None
	}
	return h.slots[slot-1]
}

// SlotOf номер слота с id; 0 если не найден
func (h *HUD) SlotOf(id identity.ID) int {
	if id == identity.None {
		return 0
	}
	for i, cur := range h.slots {
		if cur == id {
			return i + 1
		}
	}
	return 0
}

// Reset очищает все слоты
func (h *HUD) Reset() {
	for i := range h.slots {
		h.set(i+1, identity.None)
	}
}

func (h *HUD) set(slot int, id identity.ID) {
	if h.slots[slot-1] == id {
		return
	}
	h.slots[slot-1] = id
	if h.OnSlotChanged != nil {
		h.OnSlotChanged(slot, id)
	}
}
