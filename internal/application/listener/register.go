// Package listener 购买提交事件的订阅者
//
//   - SoldBookReconciler: 把购买的图书标记为SOLD
//   - InvoiceAssigner: 分配发票号(NFE)
//
// 两个订阅者互相独立,执行顺序不确定;最终每笔购买的图书都为SOLD且发票号非空。
package listener

import (
	"github.com/xiebiao/mercadolivro/internal/infrastructure/messaging"
)

// Register 把订阅者注册到分发器(在dispatcher.Start之前调用)
func Register(d messaging.Dispatcher, reconciler *SoldBookReconciler, invoices *InvoiceAssigner) error {
	if err := d.Subscribe(SoldBookReconcilerName, reconciler.Handle); err != nil {
		return err
	}
	return d.Subscribe(InvoiceAssignerName, invoices.Handle)
}
