package chromakey

import "sync"

// parallel 把 [0, n) 切成 workers 段并发执行 fn，n 太小时直接串行
func parallel(n, workers int, fn func(start, end int)) {
	if workers <= 1 || n < workers*2 {
		fn(0, n)
		return
	}

	part := n / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * part
		end := start + part
		// 最后一段兜住余数
		if i == workers-1 {
			end = n
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
